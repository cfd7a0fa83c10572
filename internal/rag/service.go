package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/vector"
	"go.uber.org/zap"
)

// Ingester turns a file into indexed chunks. *indexer.Pipeline implements it.
type Ingester interface {
	Ingest(ctx context.Context, filePath string) (*models.IngestResult, error)
}

// Service is the entry point used by the HTTP API, the CLI and the watcher.
type Service struct {
	ingester Ingester
	index    vector.Index
	sessions *Sessions
	logger   *zap.Logger
}

// NewService creates a service over an ingestion pipeline, the index it writes to and
// the conversation registry.
func NewService(ingester Ingester, index vector.Index, sessions *Sessions, opts ...Option) *Service {
	return &Service{
		ingester: ingester,
		index:    index,
		sessions: sessions,
		logger:   applyOptions(opts).logger,
	}
}

// Ingest adds the file at path to the index.
func (s *Service) Ingest(ctx context.Context, path string) (*models.IngestResult, error) {
	res, err := s.ingester.Ingest(ctx, path)
	if err != nil {
		s.logger.Warn("ingestion failed",
			zap.String("path", path),
			zap.String("kind", string(models.KindOf(err))),
			zap.Error(err))
		return nil, err
	}
	return res, nil
}

// Answer answers question in the conversation sessionID, restricted to scope when it
// is not empty.
func (s *Service) Answer(ctx context.Context, sessionID, question string, scope []string) models.Answer {
	return s.sessions.Get(sessionID).Answer(ctx, question, scope)
}

// ListDocuments returns the identities of all ingested documents, sorted.
func (s *Service) ListDocuments(ctx context.Context) ([]string, error) {
	metas, err := s.index.ListMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	docs := models.UniqueDocumentIDs(metas)
	sort.Strings(docs)
	return docs, nil
}

// HasDocument reports whether a document with the given identity has been ingested.
func (s *Service) HasDocument(ctx context.Context, documentID string) (bool, error) {
	chunks, err := s.index.FilteredLookup(ctx, models.Filter{DocumentID: documentID}, 1)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", documentID, err)
	}
	return len(chunks) > 0, nil
}

// ClearSession forgets the conversation sessionID. It reports whether it existed.
func (s *Service) ClearSession(sessionID string) bool {
	return s.sessions.Clear(sessionID)
}

// Sessions returns the IDs of the conversations started so far.
func (s *Service) Sessions() []string {
	return s.sessions.IDs()
}

// Stats counts chunks and documents in the index.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	chunks, err := s.index.Count(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("count chunks: %w", err)
	}
	docs, err := s.ListDocuments(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return models.Stats{Chunks: chunks, Documents: len(docs)}, nil
}
