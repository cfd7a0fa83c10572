// Package models defines core data structures for chunks, queries, and ingestion results.
package models

import (
	"path/filepath"
	"time"
)

// ChunkMetadata is the provenance stored alongside every chunk in the vector index.
type ChunkMetadata struct {
	SourcePath string    `json:"source_path"`
	DocumentID string    `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Timestamp  time.Time `json:"timestamp"`
}

// Chunk is a bounded span of a source document, the unit stored in the vector index.
// Chunks are immutable once written.
type Chunk struct {
	ID       string        `json:"id"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoredChunk is a similarity search hit.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// Filter restricts a metadata lookup to chunks of a single document.
type Filter struct {
	DocumentID string
}

// DocumentIDFromPath returns the document identity for a source path: its base file name.
func DocumentIDFromPath(sourcePath string) string {
	if sourcePath == "" {
		return ""
	}
	return filepath.Base(sourcePath)
}

// UniqueDocumentIDs returns the document identities present in metas, in first-seen order.
// Entries without a source path are skipped.
func UniqueDocumentIDs(metas []ChunkMetadata) []string {
	seen := make(map[string]struct{}, len(metas))
	ids := make([]string, 0)
	for _, m := range metas {
		id := m.DocumentID
		if id == "" {
			id = DocumentIDFromPath(m.SourcePath)
		}
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
