package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ftsearch"
	"github.com/kailas-cloud/ftsearch/internal/logger"
)

// DefaultMaxBatchSize bounds the documents accepted by one insert request.
const DefaultMaxBatchSize = 1000

// Engine is the search engine surface the HTTP API exposes.
type Engine interface {
	InsertMultiple(ctx context.Context, docs []ftsearch.Document) ([]string, error)
	InsertBatch(ctx context.Context, docs []ftsearch.Document) []ftsearch.BatchResult
	RemoveBatch(ctx context.Context, ids []string) []ftsearch.BatchResult
	Get(ctx context.Context, id string) (ftsearch.Document, error)
	Update(ctx context.Context, id string, set ftsearch.Document) (ftsearch.Document, error)
	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, params ftsearch.SearchParams) (*ftsearch.Results, error)
	Schema() []ftsearch.Field
	PutPinRule(ctx context.Context, r ftsearch.PinRule) error
	RemovePinRule(ctx context.Context, id string) error
	PinRules() []ftsearch.PinRule
	Health(ctx context.Context) ftsearch.HealthReport
}

// Server serves the ftsearch HTTP API.
type Server struct {
	engine        Engine
	logger        *zap.Logger
	maxLimit      int
	maxBatchSize  int
	errorHandlers []errorHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMaxLimit rejects searches asking for more than n hits. Zero disables the check.
func WithMaxLimit(n int) ServerOption {
	return func(s *Server) { s.maxLimit = n }
}

// WithMaxBatchSize bounds the documents accepted by one insert request.
func WithMaxBatchSize(n int) ServerOption {
	return func(s *Server) { s.maxBatchSize = n }
}

// NewServer creates an HTTP API server.
func NewServer(engine Engine, logger *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		engine:        engine,
		logger:        logger,
		maxBatchSize:  DefaultMaxBatchSize,
		errorHandlers: defaultErrorHandlers(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/schema", s.GetSchema)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.InsertDocuments)
		r.Post("/batch", s.BatchInsert)
		r.Post("/batch-delete", s.BatchDelete)
		r.Get("/{id}", s.GetDocument)
		r.Patch("/{id}", s.UpdateDocument)
		r.Delete("/{id}", s.DeleteDocument)
	})
	r.Post("/search", s.SearchDocuments)

	r.Route("/pin-rules", func(r chi.Router) {
		r.Get("/", s.ListPinRules)
		r.Put("/{id}", s.PutPinRule)
		r.Delete("/{id}", s.DeletePinRule)
	})
}

type insertRequest struct {
	Documents []ftsearch.Document `json:"documents"`
}

type insertResponse struct {
	IDs []string `json:"ids"`
}

// InsertDocuments handles POST /documents.
func (s *Server) InsertDocuments(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 || len(req.Documents) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", s.maxBatchSize))
		return
	}

	ids, err := s.engine.InsertMultiple(r.Context(), req.Documents)
	if err != nil {
		logger.FromContext(r.Context()).Warn("Insert stopped early",
			zap.Int("inserted", len(ids)), zap.Int("requested", len(req.Documents)))
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, insertResponse{IDs: ids})
}

type batchDeleteRequest struct {
	IDs []string `json:"ids"`
}

type batchItem struct {
	ID     string         `json:"id,omitempty"`
	Status string         `json:"status"`
	Error  *errorResponse `json:"error,omitempty"`
}

type batchResponse struct {
	Items     []batchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}

// BatchInsert handles POST /documents/batch. Every document is inserted
// independently and reported per item.
func (s *Server) BatchInsert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 || len(req.Documents) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("documents count must be between 1 and %d", s.maxBatchSize))
		return
	}
	writeJSON(w, http.StatusOK, toBatchResponse(s.engine.InsertBatch(r.Context(), req.Documents)))
}

// BatchDelete handles POST /documents/batch-delete.
func (s *Server) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req batchDeleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 || len(req.IDs) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("ids count must be between 1 and %d", s.maxBatchSize))
		return
	}
	writeJSON(w, http.StatusOK, toBatchResponse(s.engine.RemoveBatch(r.Context(), req.IDs)))
}

func toBatchResponse(results []ftsearch.BatchResult) batchResponse {
	resp := batchResponse{Items: make([]batchItem, len(results))}
	for i, res := range results {
		item := batchItem{ID: res.ID, Status: res.Status}
		if err := res.Err; err != nil {
			item.Error = &errorResponse{Code: batchErrorCode(err), Message: safeDomainMessage(err)}
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Items[i] = item
	}
	return resp
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// UpdateDocument handles PATCH /documents/{id}. A null value removes the property.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var set ftsearch.Document
	if !decodeBody(w, r, &set) {
		return
	}
	doc, err := s.engine.Update(r.Context(), chi.URLParam(r, "id"), set)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchDocuments handles POST /search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var params ftsearch.SearchParams
	if !decodeBody(w, r, &params) {
		return
	}
	if s.maxLimit > 0 && params.Limit != nil && *params.Limit > s.maxLimit {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("limit must not exceed %d", s.maxLimit))
		return
	}

	res, err := s.engine.Search(r.Context(), params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetSchema handles GET /schema.
func (s *Server) GetSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"fields": s.engine.Schema()})
}

// ListPinRules handles GET /pin-rules.
func (s *Server) ListPinRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": s.engine.PinRules()})
}

// PutPinRule handles PUT /pin-rules/{id}.
func (s *Server) PutPinRule(w http.ResponseWriter, r *http.Request) {
	var rule ftsearch.PinRule
	if !decodeBody(w, r, &rule) {
		return
	}
	id := chi.URLParam(r, "id")
	if rule.ID != "" && rule.ID != id {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "rule id does not match path")
		return
	}
	rule.ID = id

	if err := s.engine.PutPinRule(r.Context(), rule); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

// DeletePinRule handles DELETE /pin-rules/{id}.
func (s *Server) DeletePinRule(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RemovePinRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ftsearch.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, codePinRuleNotFound, "pin rule not found")
			return
		}
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.engine.Health(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
