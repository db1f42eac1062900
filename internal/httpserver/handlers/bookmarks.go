package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	"github.com/zakhap/bookmarks-with-friends/internal/httpserver/deps"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

// maxBodyBytes bounds one write request.
const maxBodyBytes = 64 << 10

// APIKeyHeader carries the contributor key when the body omits it.
const APIKeyHeader = "X-API-Key"

// Error codes returned in the "code" field of an error body.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeBadRequest   = "BAD_REQUEST"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

type listResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type createResponse struct {
	Bookmark domain.Bookmark `json:"bookmark"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// ListBookmarks returns the most recent bookmarks written through the API.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarks, err := d.Store.Latest(r.Context(), domain.DefaultPageSize)
		if err != nil {
			writeError(w, d, err)
			return
		}
		if bookmarks == nil {
			bookmarks = []domain.Bookmark{}
		}
		writeJSON(w, d, http.StatusOK, listResponse{Bookmarks: bookmarks})
	}
}

// CreateBookmark authorizes, validates and stores one bookmark.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.CreateInput

		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err := dec.Decode(&in); err != nil {
			d.Logger.Debug("rejecting write: unreadable body", logger.Error(err))
			writeJSON(w, d, http.StatusBadRequest, errorResponse{Error: errorBody{
				Code:    CodeBadRequest,
				Message: "request body must be a JSON object",
			}})
			return
		}
		if in.APIKey == "" {
			in.APIKey = r.Header.Get(APIKeyHeader)
		}

		bm, err := d.Ingestor.Create(r.Context(), in)
		if err != nil {
			writeError(w, d, err)
			return
		}

		writeJSON(w, d, http.StatusCreated, createResponse{Bookmark: bm})
	}
}

// writeError maps domain errors to status codes. Anything unrecognised,
// including a misconfigured server, is a generic 500.
func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, d, http.StatusBadRequest, errorResponse{Error: errorBody{
			Code:    CodeBadRequest,
			Message: ve.Message,
			Field:   ve.Field,
		}})
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, d, http.StatusUnauthorized, errorResponse{Error: errorBody{
			Code:    CodeUnauthorized,
			Message: domain.ErrUnauthorized.Error(),
		}})
	default:
		var ce *domain.ConfigurationError
		if !errors.As(err, &ce) {
			d.Logger.Error("bookmark request failed", logger.Error(err))
		}
		writeJSON(w, d, http.StatusInternalServerError, errorResponse{Error: errorBody{
			Code:    CodeInternal,
			Message: "internal server error",
		}})
	}
}

func writeJSON(w http.ResponseWriter, d deps.Deps, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}
