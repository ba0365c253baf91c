package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/traustid/arosenius-api/internal/core/domain"
	"github.com/traustid/arosenius-api/internal/core/ports/driven"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SearchResponse is the paged search result with assembled documents
type SearchResponse struct {
	Total     int                `json:"total"`
	Documents []*domain.Document `json:"documents"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		}
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["queue"] = err.Error()
		}
	}

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Search endpoints

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, domain.ParseFilter(r.URL.Query()))
}

// handleAdminSearch lists documents including unpublished and deleted ones
func (s *Server) handleAdminSearch(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, domain.ParseFilter(r.URL.Query()).Admin())
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, f domain.Filter) {
	result, err := s.searchService.Search(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	docs, err := s.documentService.GetMany(r.Context(), result.IDs)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ordered := orderedByID(docs, result.IDs)

	// The simple view drops the image lists; gallery grids only need the
	// top-level fields.
	if simple, _ := strconv.ParseBool(r.URL.Query().Get("simple")); simple {
		for _, doc := range ordered {
			doc.Images = nil
		}
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Total:     result.Total,
		Documents: ordered,
	})
}

// orderedByID restores the ranked ordering on the assembled documents.
func orderedByID(docs []*domain.Document, ids []string) []*domain.Document {
	byID := make(map[string]*domain.Document, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}
	ordered := make([]*domain.Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			ordered = append(ordered, doc)
		}
	}
	return ordered
}

// Document endpoints

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documentService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleNextDocument(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, s.documentService.NextByInsertID)
}

func (s *Server) handlePrevDocument(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, s.documentService.PrevByInsertID)
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, n int64) (*domain.Document, error)) {
	n, ok := parseInsertID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid insert_id")
		return
	}

	doc, err := fn(r.Context(), n)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleHighestInsertID(w http.ResponseWriter, r *http.Request) {
	highest, err := s.documentService.HighestInsertID(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"highest_insert_id": highest})
}

// Aggregation endpoints

// handleFacet serves /types, /genres, /tags, /persons and /places from the
// same facet-count aggregation.
func (s *Server) handleFacet(w http.ResponseWriter, r *http.Request) {
	name := strings.Trim(r.URL.Path, "/")
	facet, ok := domain.ParseFacet(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown facet")
		return
	}

	sort := driven.SortByValue
	if r.URL.Query().Get("sort") == string(driven.SortByCount) {
		sort = driven.SortByCount
	}

	counts, err := s.aggregateService.FacetCounts(r.Context(), facet, sort)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleMuseums(w http.ResponseWriter, r *http.Request) {
	counts, err := s.aggregateService.Museums(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleTagCloud(w http.ResponseWriter, r *http.Request) {
	entries, err := s.aggregateService.TagCloud(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleExhibitions(w http.ResponseWriter, r *http.Request) {
	counts, err := s.aggregateService.Exhibitions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handlePageTypes(w http.ResponseWriter, r *http.Request) {
	counts, err := s.aggregateService.PageTypes(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleYearRange(w http.ResponseWriter, r *http.Request) {
	years, err := s.aggregateService.YearRange(r.Context(), domain.ParseFilter(r.URL.Query()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, years)
}

func (s *Server) handleColorMap(w http.ResponseWriter, r *http.Request) {
	source := domain.ColorSourceDominant
	if r.URL.Query().Get("source") == string(domain.ColorSourcePalette) {
		source = domain.ColorSourcePalette
	}
	threeLevel := r.URL.Query().Get("levels") == "3"

	buckets, err := s.aggregateService.ColorMap(r.Context(), source, threeLevel)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// Auth endpoints

// LoginRequest carries admin credentials
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued bearer token
type LoginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Write endpoints

func (s *Server) handleInsertDocument(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if doc.ID == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	if err := s.documentService.Insert(r.Context(), &doc); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "created", "id": doc.ID})
}

func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	doc.ID = r.PathValue("id")

	if err := s.documentService.Update(r.Context(), &doc); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated", "id": doc.ID})
}

// CombineRequest names the records to merge and the one that survives
type CombineRequest struct {
	IDs           []string `json:"ids"`
	FinalDocument string   `json:"finalDocument"`
}

func (s *Server) handleCombineDocuments(w http.ResponseWriter, r *http.Request) {
	var req CombineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.IDs) < 2 || req.FinalDocument == "" {
		writeError(w, http.StatusBadRequest, "ids and finalDocument are required")
		return
	}

	if err := s.mergeService.Merge(r.Context(), req.IDs, req.FinalDocument); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "combined", "id": req.FinalDocument})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnsupportedFilter):
		writeError(w, http.StatusBadRequest, "filter not supported by the configured search backend")
	case errors.Is(err, domain.ErrRecordSetChanged):
		writeError(w, http.StatusConflict, "records changed, reload and retry")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func parseInsertID(r *http.Request) (int64, bool) {
	n, err := strconv.ParseInt(r.PathValue("insert_id"), 10, 64)
	return n, err == nil && n > 0
}
