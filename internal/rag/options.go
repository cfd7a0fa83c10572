// Package rag answers questions from ingested documents: context retrieval,
// conversation fusion, prompt construction and answer generation.
package rag

import "go.uber.org/zap"

// DefaultTopK is the number of chunks retrieved by unscoped similarity search.
const DefaultTopK = 3

// DefaultSessionID is used when a caller does not name a conversation.
const DefaultSessionID = "default"

type options struct {
	logger     *zap.Logger
	topK       int
	tagSources bool
}

func defaultOptions() options {
	return options{logger: zap.NewNop(), topK: DefaultTopK}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures the resolver, orchestrator, session registry and service.
type Option func(*options)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTopK sets the number of chunks returned by unscoped retrieval.
func WithTopK(k int) Option {
	return func(o *options) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithTagSources prefixes each unscoped context chunk with its document identity.
func WithTagSources(tag bool) Option {
	return func(o *options) { o.tagSources = tag }
}
