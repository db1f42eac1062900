package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

type fakeRepo struct {
	saved []NewBookmark
	err   error
}

func (r *fakeRepo) Create(_ context.Context, nb NewBookmark) (Bookmark, error) {
	if r.err != nil {
		return Bookmark{}, r.err
	}
	r.saved = append(r.saved, nb)
	return Bookmark{
		ID:      "generated",
		Kind:    KindLink,
		URL:     nb.URL,
		Title:   nb.Title,
		Note:    nb.Note,
		SavedBy: nb.SavedBy,
		SavedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func validInput() CreateInput {
	return CreateInput{
		URL:     "https://example.com/article",
		Title:   "An article",
		Note:    "worth reading",
		SavedBy: "alice",
		APIKey:  "secret",
	}
}

func TestIngestorCreate(t *testing.T) {
	repo := &fakeRepo{}
	ing := NewIngestor(repo, "secret", logger.Nop())

	bm, err := ing.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected 1 stored bookmark, got %d", len(repo.saved))
	}
	if bm.ID != "generated" || bm.SavedAt.IsZero() {
		t.Errorf("Create() returned %+v, want server-assigned id and savedAt", bm)
	}
}

func TestIngestorCreateUnauthorized(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		reason string
	}{
		{name: "wrong key", key: "nope", reason: "key mismatch"},
		{name: "missing key", key: "", reason: "missing key"},
		{name: "prefix of key", key: "secre", reason: "key mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			ing := NewIngestor(repo, "secret", logger.Nop())

			in := validInput()
			in.APIKey = tt.key
			_, err := ing.Create(context.Background(), in)

			if !errors.Is(err, ErrUnauthorized) {
				t.Fatalf("Create() error = %v, want ErrUnauthorized", err)
			}
			var authErr *AuthorizationError
			if !errors.As(err, &authErr) || authErr.Reason != tt.reason {
				t.Errorf("reason = %v, want %q", err, tt.reason)
			}
			if err.Error() != "unauthorized" {
				t.Errorf("caller-visible message = %q, want generic", err.Error())
			}
			if len(repo.saved) != 0 {
				t.Errorf("unauthorized write persisted %d rows", len(repo.saved))
			}
		})
	}
}

func TestIngestorCreateWithoutServerKey(t *testing.T) {
	repo := &fakeRepo{}
	ing := NewIngestor(repo, "", logger.Nop())

	_, err := ing.Create(context.Background(), validInput())

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Create() error = %v, want ConfigurationError", err)
	}
	if len(repo.saved) != 0 {
		t.Error("misconfigured server must not persist anything")
	}
}

func TestIngestorAuthBeforeValidation(t *testing.T) {
	ing := NewIngestor(&fakeRepo{}, "secret", logger.Nop())

	in := validInput()
	in.APIKey = "wrong"
	in.URL = "not a url"
	_, err := ing.Create(context.Background(), in)

	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Create() error = %v, want ErrUnauthorized before field checks", err)
	}
}

func TestIngestorRepositoryError(t *testing.T) {
	boom := errors.New("disk full")
	ing := NewIngestor(&fakeRepo{err: boom}, "secret", logger.Nop())

	_, err := ing.Create(context.Background(), validInput())
	if !errors.Is(err, boom) {
		t.Errorf("Create() error = %v, want wrapped repository error", err)
	}
}

func TestValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateInput)
		wantField string
	}{
		{name: "valid", mutate: func(*CreateInput) {}},
		{name: "missing url", mutate: func(in *CreateInput) { in.URL = "" }, wantField: "url"},
		{name: "relative url", mutate: func(in *CreateInput) { in.URL = "/just/a/path" }, wantField: "url"},
		{name: "not a url", mutate: func(in *CreateInput) { in.URL = "example dot com" }, wantField: "url"},
		{name: "ftp scheme", mutate: func(in *CreateInput) { in.URL = "ftp://example.com/file" }, wantField: "url"},
		{name: "blank title", mutate: func(in *CreateInput) { in.Title = "   " }, wantField: "title"},
		{name: "missing savedBy", mutate: func(in *CreateInput) { in.SavedBy = "" }, wantField: "savedBy"},
		{name: "note optional", mutate: func(in *CreateInput) { in.Note = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			_, err := ValidateInput(in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateInput() error = %v, want nil", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("ValidateInput() error = %v, want ValidationError", err)
			}
			if vErr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", vErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateInputTrims(t *testing.T) {
	in := validInput()
	in.Title = "  padded  "
	in.SavedBy = " bob "

	nb, err := ValidateInput(in)
	if err != nil {
		t.Fatalf("ValidateInput() error = %v", err)
	}
	if nb.Title != "padded" || nb.SavedBy != "bob" {
		t.Errorf("ValidateInput() = %+v, want trimmed fields", nb)
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{KindLink, KindImage, KindText, KindOther} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if Kind("video").Valid() {
		t.Error(`"video" should not be valid`)
	}
}
