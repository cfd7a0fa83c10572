package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/docqa/internal/models"
)

func TestAPIClient_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/query" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req models.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
			return
		}
		if req.Question != "why?" || len(req.Documents) != 1 || req.SessionID != "s1" {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(models.QueryResponse{Response: models.Answer{Answer: "because"}})
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL+"/", 0)
	got, err := c.Query(context.Background(), models.QueryRequest{Question: "why?", Documents: []string{"a.txt"}, SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Answer != "because" {
		t.Errorf("answer = %q", got.Answer)
	}
}

func TestAPIClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Error(err)
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		if header.Filename != "notes.txt" || string(content) != "hello" {
			t.Errorf("upload = %s %q", header.Filename, content)
		}
		_ = json.NewEncoder(w).Encode(models.UploadResponse{FileName: header.Filename, IsNewFile: true, NumChunks: 1, VectorStoreSize: 1})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0600); err != nil {
		t.Fatal(err)
	}
	res, err := NewAPIClient(srv.URL, 0).Upload(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsNewFile || res.FileName != "notes.txt" {
		t.Errorf("response = %+v", res)
	}
}

func TestAPIClient_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnsupportedMediaType)
		_, _ = w.Write([]byte(`{"error":"unsupported file format \".docx\""}`))
	}))
	defer srv.Close()

	_, err := NewAPIClient(srv.URL, 0).Documents(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnsupportedMediaType || apiErr.Message != `unsupported file format ".docx"` {
		t.Errorf("error = %+v", apiErr)
	}
}

func TestAPIClient_ClearSession(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"status":"cleared"}`))
	}))
	defer srv.Close()

	if err := NewAPIClient(srv.URL, 0).ClearSession(context.Background(), "abc"); err != nil {
		t.Fatal(err)
	}
	if path != "/sessions/abc" {
		t.Errorf("path = %s", path)
	}
}
