// Package api exposes the HTTP surface: upload, status, query/chat and
// collection management.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"

	"chatquery/internal/config"
	"chatquery/internal/embedding"
	"chatquery/internal/parser"
	"chatquery/internal/providers"
	"chatquery/internal/rag"
	"chatquery/internal/store"
	"chatquery/internal/util"
	"chatquery/internal/workflows"
)

// temporalClient is the slice of the Temporal client the server needs.
type temporalClient interface {
	ExecuteWorkflow(ctx context.Context, options tclient.StartWorkflowOptions, workflow interface{}, args ...interface{}) (tclient.WorkflowRun, error)
	QueryWorkflow(ctx context.Context, workflowID string, runID string, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

type Server struct {
	cfg       config.Config
	store     store.VectorStore
	assembler *rag.Assembler
	temporal  temporalClient
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	vs, err := store.New(ctx, cfg)
	if err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	gw := embedding.NewGatewayFromManager(pm, cfg.EmbedDim)
	return &Server{
		cfg:       cfg,
		store:     vs,
		assembler: rag.NewAssembler(gw, vs, pm.FirstLLMProvider(), cfg.DefaultTopK),
		temporal:  tc,
	}
}

func newServer(cfg config.Config, vs store.VectorStore, assembler *rag.Assembler, tc temporalClient) *Server {
	return &Server{cfg: cfg, store: vs, assembler: assembler, temporal: tc}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/upload", s.handleUpload)
	mux.HandleFunc("/status/", s.handleStatus)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/chat", s.handleChat)
	mux.HandleFunc("/collections", s.handleCollections)
	mux.HandleFunc("/collections/", s.handleCollectionScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}
	fh := firstFile(r.MultipartForm.File)
	if fh == nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no file provided"))
		return
	}
	// Extension check happens before anything touches disk: an unsupported
	// type must never leave a temp file or a workflow behind.
	if !parser.IsSupported(fh.Filename) {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("unsupported file type %s, supported: %s",
			filepath.Ext(fh.Filename), strings.Join(parser.Supported(), ", ")))
		return
	}

	collection := strings.TrimSpace(r.FormValue("collection_name"))
	if collection == "" {
		collection = s.cfg.DefaultCollection
	}

	fileID, savedPath, err := s.saveUpload(fh)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	// Stable workflow ID per collection so /status can query progress; a new
	// upload into the same collection starts a fresh run.
	workflowID := "ingest-" + collection
	_, err = s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                    workflowID,
		TaskQueue:             s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}, workflows.IngestFileWorkflow, workflows.IngestFileInput{
		Path:           savedPath,
		Filename:       fh.Filename,
		Collection:     collection,
		ChunkThreshold: s.cfg.ChunkSize,
	})
	if err != nil {
		_ = os.Remove(savedPath)
		writeErr(w, http.StatusInternalServerError, fmt.Errorf("start ingest workflow: %w", err))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"message":         "File uploaded successfully. Processing started in background.",
		"filename":        fh.Filename,
		"file_id":         fileID,
		"status":          "processing",
		"collection_name": collection,
		"workflow_id":     workflowID,
	})
}

// saveUpload stores the upload under a content-hash name, so re-uploading the
// same file overwrites rather than accumulating temp files.
func (s *Server) saveUpload(fh *multipart.FileHeader) (fileID, path string, err error) {
	if err := util.EnsureDir(s.cfg.UploadDir); err != nil {
		return "", "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	fileID, err = util.SHA256HexFromReader(src)
	if err != nil {
		return "", "", fmt.Errorf("hash upload: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("rewind upload: %w", err)
	}

	name := fileID + strings.ToLower(filepath.Ext(fh.Filename))
	dstPath := util.SafeJoin(s.cfg.UploadDir, name)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", "", fmt.Errorf("create temp file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return "", "", fmt.Errorf("save upload: %w", err)
	}
	return fileID, dstPath, nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	collection := strings.TrimPrefix(r.URL.Path, "/status/")
	if collection == "" || strings.Contains(collection, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}

	info, err := s.store.Info(r.Context(), collection)
	if errors.Is(err, util.ErrCollectionNotFound) {
		// Nothing stored yet: ask the ingest workflow, if one exists, whether
		// it is still running or has failed. Callers poll until completed.
		status := "processing"
		if prog, ok := s.ingestProgress(r.Context(), collection); ok && prog.Status == "failed" {
			status = "failed"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"collection_name": collection,
			"status":          status,
			"document_count":  0,
			"last_updated":    nil,
		})
		return
	}
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection_name": collection,
		"status":          "completed",
		"document_count":  info.Count,
		"last_updated":    info.LastUpdated,
	})
}

func (s *Server) ingestProgress(ctx context.Context, collection string) (workflows.IngestProgress, bool) {
	resp, err := s.temporal.QueryWorkflow(ctx, "ingest-"+collection, "", workflows.QueryGetIngestProgress)
	if err != nil {
		return workflows.IngestProgress{}, false
	}
	var prog workflows.IngestProgress
	if err := resp.Get(&prog); err != nil {
		return workflows.IngestProgress{}, false
	}
	return prog, true
}

type queryRequest struct {
	Query          string `json:"query"`
	CollectionName string `json:"collection_name"`
	TopK           int    `json:"top_k"`
}

func (s *Server) decodeQueryRequest(r *http.Request) (queryRequest, error) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, fmt.Errorf("invalid json: %w", err)
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, fmt.Errorf("query is required")
	}
	if req.CollectionName == "" {
		req.CollectionName = s.cfg.DefaultCollection
	}
	if req.TopK <= 0 {
		req.TopK = s.cfg.DefaultTopK
	}
	return req, nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	req, err := s.decodeQueryRequest(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	result, _ := s.assembler.Answer(r.Context(), req.Query, req.CollectionName, req.TopK)
	relevant := make([]string, 0, len(result.Sources))
	for _, src := range result.Sources {
		relevant = append(relevant, src.Text)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answer":            result.Answer,
		"relevant_messages": relevant,
		"confidence":        result.Confidence,
		"query":             result.Query,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	req, err := s.decodeQueryRequest(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err)
		return
	}
	result, _ := s.assembler.Answer(r.Context(), req.Query, req.CollectionName, req.TopK)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	names, err := s.store.List(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": names})
}

func (s *Server) handleCollectionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/collections/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	collection := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		if err := s.store.Delete(r.Context(), collection); err != nil {
			if errors.Is(err, util.ErrCollectionNotFound) {
				writeErr(w, http.StatusNotFound, err)
				return
			}
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "collection deleted", "collection_name": collection})
	case len(parts) == 2 && parts[1] == "clear" && r.Method == http.MethodPost:
		if err := s.store.Clear(r.Context(), collection); err != nil {
			if errors.Is(err, util.ErrCollectionNotFound) {
				writeErr(w, http.StatusNotFound, err)
				return
			}
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "collection cleared", "collection_name": collection})
	case len(parts) == 1 || (len(parts) == 2 && parts[1] == "clear"):
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func firstFile(files map[string][]*multipart.FileHeader) *multipart.FileHeader {
	if fhs, ok := files["file"]; ok && len(fhs) > 0 {
		return fhs[0]
	}
	for _, fhs := range files {
		if len(fhs) > 0 {
			return fhs[0]
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
