package models

import (
	"fmt"
	"strings"
)

// QueryRequest is a question with an optional document scope and conversation ID.
type QueryRequest struct {
	Question  string   `json:"question"`
	Documents []string `json:"documents,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
}

// Validate ensures the question is not blank and trims the scope entries.
func (q *QueryRequest) Validate() error {
	q.Question = strings.TrimSpace(q.Question)
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	scope := q.Documents[:0]
	for _, d := range q.Documents {
		if d = strings.TrimSpace(d); d != "" {
			scope = append(scope, d)
		}
	}
	q.Documents = scope
	return nil
}

// Answer is the user-facing response envelope of a query. It is always populated,
// even when the query failed.
type Answer struct {
	Answer string `json:"answer"`
}

// QueryResponse wraps an Answer the way the HTTP API returns it.
type QueryResponse struct {
	Response Answer `json:"response"`
}
