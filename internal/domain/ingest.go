package domain

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/url"
	"strings"

	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

// BookmarkRepository persists bookmarks submitted through the write path.
type BookmarkRepository interface {
	Create(ctx context.Context, nb NewBookmark) (Bookmark, error)
}

// CreateInput is one write request as received from a contributor.
type CreateInput struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Note    string `json:"note,omitempty"`
	SavedBy string `json:"savedBy"`
	APIKey  string `json:"apiKey"`
}

// Ingestor authorizes, validates and persists new bookmarks.
type Ingestor struct {
	repo   BookmarkRepository
	apiKey string
	logger logger.Logger
}

// NewIngestor creates an ingestor. An empty apiKey makes every write fail closed.
func NewIngestor(repo BookmarkRepository, apiKey string, log logger.Logger) *Ingestor {
	return &Ingestor{
		repo:   repo,
		apiKey: apiKey,
		logger: log,
	}
}

// Create checks the key first, then the fields, then stores one bookmark.
func (i *Ingestor) Create(ctx context.Context, in CreateInput) (Bookmark, error) {
	if err := i.authorize(in.APIKey); err != nil {
		return Bookmark{}, err
	}

	nb, err := ValidateInput(in)
	if err != nil {
		return Bookmark{}, err
	}

	bm, err := i.repo.Create(ctx, nb)
	if err != nil {
		return Bookmark{}, fmt.Errorf("failed to store bookmark: %w", err)
	}

	i.logger.Info("bookmark saved",
		logger.String("id", bm.ID),
		logger.String("saved_by", bm.SavedBy),
		logger.String("url", bm.URL))

	return bm, nil
}

func (i *Ingestor) authorize(key string) error {
	if i.apiKey == "" {
		i.logger.Error("rejecting write: no API key configured on server")
		return &ConfigurationError{Setting: "API key"}
	}

	if key == "" {
		i.logger.Warn("rejecting write", logger.String("reason", "missing key"))
		return &AuthorizationError{Reason: "missing key"}
	}

	if subtle.ConstantTimeCompare([]byte(key), []byte(i.apiKey)) != 1 {
		i.logger.Warn("rejecting write", logger.String("reason", "key mismatch"))
		return &AuthorizationError{Reason: "key mismatch"}
	}

	return nil
}

// ValidateInput checks the contributor fields and returns the trimmed write shape.
func ValidateInput(in CreateInput) (NewBookmark, error) {
	nb := NewBookmark{
		URL:     strings.TrimSpace(in.URL),
		Title:   strings.TrimSpace(in.Title),
		Note:    strings.TrimSpace(in.Note),
		SavedBy: strings.TrimSpace(in.SavedBy),
	}

	if err := validateURL(nb.URL); err != nil {
		return NewBookmark{}, err
	}
	if nb.Title == "" {
		return NewBookmark{}, &ValidationError{Field: "title", Message: "title is required"}
	}
	if nb.SavedBy == "" {
		return NewBookmark{}, &ValidationError{Field: "savedBy", Message: "saved by name is required"}
	}

	return nb, nil
}

func validateURL(raw string) error {
	if raw == "" {
		return &ValidationError{Field: "url", Message: "url is required"}
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" {
		return &ValidationError{Field: "url", Message: "must be a valid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "must be an http or https URL"}
	}
	return nil
}
