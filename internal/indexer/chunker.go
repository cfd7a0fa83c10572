// Package indexer splits documents into chunks and writes them to the vector index.
package indexer

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hyperjump/docqa/internal/models"
)

// defaultSeparators are tried in order: paragraphs, lines, words, characters.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Chunker splits text recursively on separators into overlapping chunks of at most
// chunkSize runes.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
	now          func() time.Time
}

// NewChunker creates a chunker with the given size and overlap (in characters).
func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", chunkOverlap, chunkSize)
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
		now:          time.Now,
	}, nil
}

// Split cuts text into chunks tagged with provenance for sourcePath.
// Chunk indexes are contiguous from zero and all chunks share one timestamp.
// Blank text yields no chunks.
func (c *Chunker) Split(text, sourcePath string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := c.splitText(text, c.separators)
	docID := models.DocumentIDFromPath(sourcePath)
	ts := c.now().UTC()
	chunks := make([]models.Chunk, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			ID:   uuid.New().String(),
			Text: p,
			Metadata: models.ChunkMetadata{
				SourcePath: sourcePath,
				DocumentID: docID,
				ChunkIndex: len(chunks),
				Timestamp:  ts,
			},
		})
	}
	return chunks
}

// splitText picks the first separator present in text, merges the small pieces and
// recurses into pieces that are still too large with the remaining separators.
func (c *Chunker) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			next = separators[i+1:]
			break
		}
	}

	var final, good []string
	for _, s := range splitKeepSeparator(text, separator) {
		if runeLen(s) < c.chunkSize {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			final = append(final, c.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			final = append(final, s)
		} else {
			final = append(final, c.splitText(s, next)...)
		}
	}
	if len(good) > 0 {
		final = append(final, c.merge(good)...)
	}
	return final
}

// merge joins pieces greedily up to chunkSize. After each emitted chunk the retained
// tail is shrunk to at most chunkOverlap runes and to fit the next piece.
func (c *Chunker) merge(pieces []string) []string {
	var docs, current []string
	total := 0
	for _, p := range pieces {
		n := runeLen(p)
		if total+n > c.chunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for total > c.chunkOverlap || (total+n > c.chunkSize && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepSeparator splits text on sep, keeping sep at the start of each following
// piece. An empty sep splits into characters. Empty pieces are dropped.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
