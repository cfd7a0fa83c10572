package rag

import (
	"context"
	"strings"

	"github.com/hyperjump/docqa/internal/llm"
	"github.com/hyperjump/docqa/internal/memory"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/pkg/utils"
	"go.uber.org/zap"
)

// DegradedAnswerPrefix starts every answer produced for a failed query.
const DegradedAnswerPrefix = "An error occurred while processing your query: "

// Orchestrator answers questions for one conversation.
type Orchestrator struct {
	resolver  *Resolver
	generator llm.Generator
	memory    *memory.Conversation
	logger    *zap.Logger
}

// NewOrchestrator creates an orchestrator owning conv.
func NewOrchestrator(resolver *Resolver, generator llm.Generator, conv *memory.Conversation, opts ...Option) *Orchestrator {
	o := applyOptions(opts)
	return &Orchestrator{
		resolver:  resolver,
		generator: generator,
		memory:    conv,
		logger:    o.logger,
	}
}

// Answer resolves context, generates an answer and records the turn. It never fails:
// errors become a degraded answer and leave the conversation unchanged.
func (o *Orchestrator) Answer(ctx context.Context, question string, scope []string) models.Answer {
	answer, err := o.answer(ctx, question, scope)
	if err != nil {
		o.logger.Error("query failed",
			zap.String("question", utils.Truncate(question, 80)),
			zap.String("kind", string(models.KindOf(err))),
			zap.Bool("retryable", models.IsRetryable(err)),
			zap.Error(err))
		return models.Answer{Answer: DegradedAnswerPrefix + err.Error()}
	}
	return models.Answer{Answer: answer}
}

func (o *Orchestrator) answer(ctx context.Context, question string, scope []string) (string, error) {
	docContext, err := o.resolver.Resolve(ctx, question, scope)
	if err != nil {
		return "", err
	}
	prompt := BuildPrompt(Fuse(o.memory.Snapshot(), docContext), question)
	o.logger.Debug("prompt built", zap.Int("length", len(prompt)), zap.Int("history", o.memory.Len()))

	answer, err := o.generator.Generate(ctx, prompt)
	if err != nil {
		return "", models.WrapError(models.KindGenerationFailure, "generate answer", err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", models.NewError(models.KindGenerationFailure, "generator returned an empty answer")
	}
	o.memory.Append(question, answer)
	return answer, nil
}

// ClearMemory forgets the conversation.
func (o *Orchestrator) ClearMemory() {
	o.memory.Clear()
}

// History returns the conversation turns, oldest first.
func (o *Orchestrator) History() []memory.Turn {
	return o.memory.Snapshot()
}
