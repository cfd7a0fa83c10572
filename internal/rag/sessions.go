package rag

import (
	"sort"
	"sync"

	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/memory"
	"go.uber.org/zap"
)

// Sessions holds one orchestrator, and so one conversation memory, per conversation ID.
type Sessions struct {
	resolver     *Resolver
	generator    llm.Generator
	historyLimit int
	opts         []Option
	logger       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Orchestrator
}

// NewSessions creates an empty registry. New conversations keep historyLimit turns.
func NewSessions(resolver *Resolver, generator llm.Generator, historyLimit int, opts ...Option) *Sessions {
	return &Sessions{
		resolver:     resolver,
		generator:    generator,
		historyLimit: historyLimit,
		opts:         opts,
		logger:       applyOptions(opts).logger,
		sessions:     make(map[string]*Orchestrator),
	}
}

// Get returns the orchestrator for id, creating it on first use.
// An empty id names the default conversation.
func (s *Sessions) Get(id string) *Orchestrator {
	if id == "" {
		id = DefaultSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.sessions[id]
	if !ok {
		o = NewOrchestrator(s.resolver, s.generator, memory.NewConversation(s.historyLimit), s.opts...)
		s.sessions[id] = o
		s.logger.Debug("session created", zap.String("session_id", id))
	}
	return o
}

// Clear resets the conversation memory of id. It reports whether the session existed.
func (s *Sessions) Clear(id string) bool {
	if id == "" {
		id = DefaultSessionID
	}
	s.mu.Lock()
	o, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		o.ClearMemory()
	}
	return ok
}

// IDs returns the known conversation IDs, sorted.
func (s *Sessions) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
