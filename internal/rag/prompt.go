package rag

import "strings"

const promptTemplate = `You are an AI assistant that can answer questions about the provided context.
Try to answer the question based on the context.
The context is a list of documents that are relevant to the question.

Context: {context}
Human: {question}
AI Assistant:`

// BuildPrompt fills the answer prompt with the fused context and the raw question.
func BuildPrompt(context, question string) string {
	r := strings.NewReplacer("{context}", context, "{question}", question)
	return r.Replace(promptTemplate)
}
