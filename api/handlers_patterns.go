package api

import (
	"errors"
	"net/http"
	"time"

	models "legend-scanner/database/models_pkg"
	"legend-scanner/database/patterns"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200

	firstPageCacheKey = "legend:patterns:first_page"
	statusCacheKey    = "legend:patterns:status"
	cacheTTL          = 30 * time.Second
)

// patternsPage is the response envelope for GET /v1/patterns
type patternsPage struct {
	Items      []models.PatternDetection `json:"items"`
	NextCursor string                    `json:"next_cursor,omitempty"`
	HasMore    bool                      `json:"has_more"`
}

func (s *Server) handleGetPatterns(w http.ResponseWriter, r *http.Request) {
	one := 1
	max := maxPageLimit
	limit := getIntParam(r, "limit", defaultPageLimit, &one, &max)
	cursor := r.URL.Query().Get("cursor")

	// The cursorless first page is the hot path; serve it from cache when
	// the default limit is requested.
	cacheable := cursor == "" && limit == defaultPageLimit
	if cacheable && s.redis != nil {
		var cached patternsPage
		if err := s.redis.Get(r.Context(), firstPageCacheKey, &cached); err == nil {
			respondWithJSON(w, http.StatusOK, cached)
			return
		}
	}

	items, next, err := s.store.Page(r.Context(), cursor, limit)
	if err != nil {
		if errors.Is(err, patterns.ErrInvalidCursor) {
			respondWithError(w, http.StatusBadRequest, "invalid cursor", err)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to load patterns", err)
		return
	}

	page := patternsPage{
		Items:      items,
		NextCursor: next,
		HasMore:    next != "",
	}
	if page.Items == nil {
		page.Items = []models.PatternDetection{}
	}

	if cacheable && s.redis != nil {
		// Cache failures never block the response.
		_ = s.redis.Set(r.Context(), firstPageCacheKey, page, cacheTTL)
	}

	respondWithJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		var cached statusResponse
		if err := s.redis.Get(r.Context(), statusCacheKey, &cached); err == nil {
			respondWithJSON(w, http.StatusOK, cached)
			return
		}
	}

	st, err := s.store.Status(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to load status", err)
		return
	}

	resp := statusResponse{
		Total:     st.Total,
		LastAsOf:  st.LastAsOf,
		FirstAsOf: st.FirstAsOf,
		SpanDays:  st.SpanDays(),
	}

	if s.redis != nil {
		_ = s.redis.Set(r.Context(), statusCacheKey, resp, cacheTTL)
	}

	respondWithJSON(w, http.StatusOK, resp)
}

type statusResponse struct {
	Total     int64      `json:"total"`
	LastAsOf  *time.Time `json:"last_as_of,omitempty"`
	FirstAsOf *time.Time `json:"first_as_of,omitempty"`
	SpanDays  *int       `json:"span_days,omitempty"`
}
