package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/docqa/internal/config"
	"github.com/hyperjump/docqa/internal/extract"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/storage"
	"go.uber.org/zap"
)

const banner = "docqa: upload documents to /upload and ask questions at /query"

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"message": banner})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.service.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if docs == nil {
		docs = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"documents": docs})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxUploadMB<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		s.respondError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	if ext := filepath.Ext(name); !extract.Supported(ext) {
		err := models.NewError(models.KindUnsupportedFormat,
			fmt.Sprintf("unsupported file format %q (supported: %s)",
				strings.ToLower(ext), strings.Join(extract.SupportedExtensions(), ", ")))
		s.respondError(w, statusForError(err), err.Error())
		return
	}

	ctx := r.Context()
	exists, err := s.service.HasDocument(ctx, name)
	if err != nil {
		s.logger.Error("document lookup failed", zap.String("document_id", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dst, err := s.saveUpload(name, file)
	if err != nil {
		s.logger.Error("saving upload failed", zap.String("filename", name), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "could not store upload")
		return
	}
	s.logger.Debug("upload stored", zap.String("path", dst))

	res, err := s.service.Ingest(ctx, dst)
	if err != nil {
		s.respondError(w, statusForError(err), err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.UploadResponse{
		FileName:        name,
		IsNewFile:       !exists,
		NumChunks:       res.NumChunks,
		VectorStoreSize: res.VectorStoreSize,
	})
}

// saveUpload copies the upload into the upload directory, replacing a previous file
// of the same name.
func (s *Server) saveUpload(name string, src io.Reader) (string, error) {
	dir := s.config.Storage.UploadDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request",
		zap.String("session_id", req.SessionID),
		zap.Int("scope", len(req.Documents)))
	answer := s.service.Answer(r.Context(), req.SessionID, req.Question, req.Documents)
	s.respondJSON(w, http.StatusOK, models.QueryResponse{Response: answer})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.service.ClearSession(id) {
		s.respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "cleared"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.logger.Error("status: stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"documents": stats.Documents,
		"chunks":    stats.Chunks,
		"sessions":  len(s.service.Sessions()),
	}

	cfg := s.config
	resp["config"] = map[string]interface{}{
		"vector_index_type":    cfg.Vector.Type,
		"embedding_provider":   cfg.Embedding.Provider,
		"embedding_model":      cfg.Embedding.Model,
		"embedding_dimensions": cfg.Embedding.Dimensions,
		"llm_provider":         cfg.LLM.Provider,
		"llm_model":            cfg.LLM.Model,
		"chunk_size":           cfg.Chunking.Size,
		"chunk_overlap":        cfg.Chunking.Overlap,
		"top_k":                cfg.Retrieval.TopK,
		"history_limit":        cfg.Memory.HistoryLimit,
		"data_dir":             cfg.Storage.DataDir,
		"upload_dir":           cfg.Storage.UploadDir,
	}
	if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DataDir, cfg.Storage.UploadDir); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Path) == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	if err := s.watch.AddDirectory(abs); err != nil {
		s.logger.Error("watch add directory failed", zap.String("path", abs), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("watch directory added", zap.String("path", abs))
	if s.configPath != "" {
		s.configMu.Lock()
		s.config.Watch.Directories = s.watch.Directories()
		err := config.Save(s.configPath, s.config)
		s.configMu.Unlock()
		if err != nil {
			s.logger.Warn("failed to persist watch config", zap.Error(err))
		}
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

// statusForError maps ingestion error kinds to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, models.ErrLoadFailure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
