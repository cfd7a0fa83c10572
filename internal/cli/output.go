// Package cli provides output formatting and an HTTP client for the docqa command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/docqa/internal/models"
)

// OutputFormat is the format of command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, "":
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (supported: text, json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes the answer to a question. JSON output uses the /query response shape.
func WriteAnswer(w io.Writer, answer models.Answer, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, models.QueryResponse{Response: answer})
	}
	_, err := fmt.Fprintln(w, strings.TrimSpace(answer.Answer))
	return err
}

// WriteIngestResults writes one line per ingested file.
func WriteIngestResults(w io.Writer, results []*models.IngestResult, format OutputFormat) error {
	if format == OutputJSON {
		if results == nil {
			results = []*models.IngestResult{}
		}
		return writeJSON(w, results)
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s: %d chunks (index size %d)\n", r.FileName, r.NumChunks, r.VectorStoreSize)
	}
	return nil
}

// WriteDocuments writes the ingested document identities.
func WriteDocuments(w io.Writer, docs []string, format OutputFormat) error {
	if format == OutputJSON {
		if docs == nil {
			docs = []string{}
		}
		return writeJSON(w, map[string][]string{"documents": docs})
	}
	if len(docs) == 0 {
		_, err := fmt.Fprintln(w, "No documents ingested.")
		return err
	}
	for _, d := range docs {
		fmt.Fprintln(w, d)
	}
	return nil
}

// Status is what the status command reports.
type Status struct {
	Documents       int    `json:"documents"`
	Chunks          int    `json:"chunks"`
	VectorIndexType string `json:"vector_index_type"`
	EmbeddingModel  string `json:"embedding_model"`
	LLMModel        string `json:"llm_model"`
	DataDir         string `json:"data_dir"`
	DiskUsageBytes  int64  `json:"disk_usage_bytes"`
}

// WriteStatus writes index statistics and the active configuration.
func WriteStatus(w io.Writer, s Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, s)
	}
	fmt.Fprintf(w, "Documents:    %d\n", s.Documents)
	fmt.Fprintf(w, "Chunks:       %d\n", s.Chunks)
	fmt.Fprintf(w, "Vector index: %s (%s)\n", s.VectorIndexType, s.DataDir)
	fmt.Fprintf(w, "Embeddings:   %s\n", s.EmbeddingModel)
	fmt.Fprintf(w, "LLM:          %s\n", s.LLMModel)
	fmt.Fprintf(w, "Disk usage:   %s\n", FormatBytes(s.DiskUsageBytes))
	return nil
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
