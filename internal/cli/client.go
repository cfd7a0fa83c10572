package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hyperjump/docqa/internal/models"
)

// APIClient talks to a running docqa server.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// NewAPIClient creates a client for baseURL, e.g. "http://localhost:8000".
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Query posts a question to /query.
func (c *APIClient) Query(ctx context.Context, req models.QueryRequest) (models.Answer, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.Answer{}, err
	}
	var out models.QueryResponse
	if err := c.do(ctx, http.MethodPost, "/query", "application/json", bytes.NewReader(body), &out); err != nil {
		return models.Answer{}, err
	}
	return out.Response, nil
}

// Documents lists the documents known to the server.
func (c *APIClient) Documents(ctx context.Context) ([]string, error) {
	var out struct {
		Documents []string `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, "/documents", "", nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// Upload sends the file at path to /upload.
func (c *APIClient) Upload(ctx context.Context, path string) (*models.UploadResponse, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	var out models.UploadResponse
	if err := c.do(ctx, http.MethodPost, "/upload", mw.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearSession forgets a server-side conversation.
func (c *APIClient) ClearSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(sessionID), "", nil, nil)
}

func (c *APIClient) do(ctx context.Context, method, path, contentType string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := resp.Status
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
