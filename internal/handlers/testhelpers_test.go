package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benvon/sparkreply/internal/database"
	"github.com/benvon/sparkreply/internal/generation"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/benvon/sparkreply/internal/request"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
	Details map[string]any  `json:"details"`
}

func testIdentity() *models.Identity {
	return &models.Identity{
		UserID:  uuid.MustParse("5f1c8a0e-3b7d-4a59-9a51-3a1f5c2e7b10"),
		Subject: "user-123",
		Email:   "user@example.com",
	}
}

// serve routes req through a router mounted at prefix, with identity attached when non-nil
func serve(t *testing.T, prefix string, register func(*mux.Router), identity *models.Identity, method, target string, body io.Reader) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	router := mux.NewRouter()
	register(router.PathPrefix(prefix).Subrouter())

	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		req = req.WithContext(request.WithIdentity(req.Context(), identity))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

type fakeGenerator struct {
	mu     sync.Mutex
	result *generation.Result
	err    error
	calls  []models.ContentType
}

func (f *fakeGenerator) Generate(_ context.Context, _ *models.Identity, ct models.ContentType, input models.GenerationRequest) (*generation.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ct)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	spec, err := generation.Spec(ct)
	if err != nil {
		return nil, err
	}
	return &generation.Result{
		ID:          uuid.New(),
		ContentType: ct,
		Spec:        spec,
		Variants:    models.Variants{{Key: "a", Text: "one"}},
		Input:       models.Metadata{"topic": input.Topic},
		Tier:        generation.TierJSON,
		CreatedAt:   time.Now(),
	}, nil
}

type fakeGenerations struct {
	items   []*models.Generation
	err     error
	table   string
	limit   int
	deleted uuid.UUID
}

func (f *fakeGenerations) Create(context.Context, string, *models.Generation) error { return f.err }

func (f *fakeGenerations) List(_ context.Context, table string, _ uuid.UUID, _ models.ContentType, limit int) ([]*models.Generation, error) {
	f.table, f.limit = table, limit
	return f.items, f.err
}

func (f *fakeGenerations) ListAll(_ context.Context, _ uuid.UUID, limit int) ([]*models.Generation, error) {
	f.table, f.limit = "", limit
	return f.items, f.err
}

func (f *fakeGenerations) Delete(_ context.Context, table string, id, _ uuid.UUID) error {
	f.table, f.deleted = table, id
	return f.err
}

type fakeSaved struct {
	created *models.SavedContent
	patch   *models.SavedContentPatch
	items   []*models.SavedContent
	err     error
}

func (f *fakeSaved) Create(_ context.Context, item *models.SavedContent) error {
	f.created = item
	return f.err
}

func (f *fakeSaved) List(context.Context, uuid.UUID, models.ContentType, int) ([]*models.SavedContent, error) {
	return f.items, f.err
}

func (f *fakeSaved) Update(_ context.Context, id, userID uuid.UUID, patch *models.SavedContentPatch) (*models.SavedContent, error) {
	f.patch = patch
	if f.err != nil {
		return nil, f.err
	}
	item := &models.SavedContent{ID: id, UserID: userID, Type: models.ContentTypePost, Title: "t", Content: "c"}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Content != nil {
		item.Content = *patch.Content
	}
	return item, nil
}

func (f *fakeSaved) Delete(context.Context, uuid.UUID, uuid.UUID) error { return f.err }

type fakeSettings struct {
	stored *models.UserSettings
	err    error
}

func (f *fakeSettings) Get(_ context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.stored == nil {
		return models.DefaultUserSettings(userID), nil
	}
	return f.stored, nil
}

func (f *fakeSettings) Upsert(_ context.Context, s *models.UserSettings) error {
	if f.err != nil {
		return f.err
	}
	f.stored = s
	return nil
}

type fakeStats struct {
	now time.Time
}

func (f *fakeStats) Dashboard(_ context.Context, _ uuid.UUID, now time.Time) (*models.DashboardStats, error) {
	f.now = now
	return &models.DashboardStats{}, nil
}

var (
	_ database.GenerationRepositoryInterface   = (*fakeGenerations)(nil)
	_ database.SavedContentRepositoryInterface = (*fakeSaved)(nil)
	_ database.UserSettingsRepositoryInterface = (*fakeSettings)(nil)
	_ database.StatsRepositoryInterface        = (*fakeStats)(nil)
)
