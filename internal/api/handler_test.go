package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shopping-service/internal/models"
	"shopping-service/internal/service"
	"shopping-service/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	items     []models.Item
	addErr    error
	deleteErr error
	added     *service.AddItemRequest
}

func (s *stubCatalog) Stores() []string { return []string{"aldi", "walmart", "shoprite"} }

func (s *stubCatalog) ListItems(context.Context) ([]models.Item, error) { return s.items, nil }

func (s *stubCatalog) AddItem(_ context.Context, req *service.AddItemRequest) (*models.Item, error) {
	s.added = req
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &models.Item{ID: "i1", Name: req.Name, Quantity: req.Quantity}, nil
}

func (s *stubCatalog) DeleteItem(context.Context, string) error { return s.deleteErr }

func (s *stubCatalog) ClearList(context.Context) (int64, error) { return int64(len(s.items)), nil }

type stubSessions struct {
	startErr    error
	startKey    string
	startOrder  []string
	toggleErr   error
	lastKnown   *bool
	finishFrom  string
	summaryErr  error
	resumeState *service.SessionState
}

func (s *stubSessions) Start(_ context.Context, req *service.StartSessionRequest, key string) (*service.SessionState, error) {
	s.startKey = key
	s.startOrder = req.StoreOrder
	if s.startErr != nil {
		return nil, s.startErr
	}
	return &service.SessionState{State: session.StateActive, CurrentStore: "aldi"}, nil
}

func (s *stubSessions) Resume(context.Context) (*service.SessionState, error) {
	return s.resumeState, nil
}

func (s *stubSessions) Get(_ context.Context, id string) (*service.SessionState, error) {
	return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, id)
}

func (s *stubSessions) TogglePurchased(_ context.Context, _, itemID string, lastKnown *bool) (*service.ToggleResult, error) {
	s.lastKnown = lastKnown
	if s.toggleErr != nil {
		return nil, s.toggleErr
	}
	return &service.ToggleResult{ItemID: itemID, Purchased: true, Store: "aldi"}, nil
}

func (s *stubSessions) MarkNotFound(_ context.Context, _, itemID string) (*service.ToggleResult, error) {
	return &service.ToggleResult{ItemID: itemID, NotFound: true, Store: "aldi"}, nil
}

func (s *stubSessions) FinishStore(_ context.Context, _, from string) (*service.AdvanceResult, error) {
	s.finishFrom = from
	return &service.AdvanceResult{CurrentIndex: 1, CurrentStore: "walmart"}, nil
}

func (s *stubSessions) Summary(_ context.Context, id string) (*session.Summary, error) {
	if s.summaryErr != nil {
		return nil, s.summaryErr
	}
	return &session.Summary{SessionID: id}, nil
}

type stubViews struct {
	snapshots []*service.ListerView
	watchErr  error
}

func (v *stubViews) Lister(context.Context) (*service.ListerView, error) {
	return &service.ListerView{}, nil
}

func (v *stubViews) Shopper(context.Context) (*service.ShopperView, error) {
	return &service.ShopperView{SessionState: &service.SessionState{State: session.StateNotStarted}}, nil
}

func (v *stubViews) Visible(context.Context, string, string) ([]models.Item, error) {
	return nil, service.ErrUnknownStore
}

func (v *stubViews) WatchLister(_ context.Context, apply func(*service.ListerView) error) error {
	if v.watchErr != nil {
		return v.watchErr
	}
	for _, snap := range v.snapshots {
		if err := apply(snap); err != nil {
			return err
		}
	}
	return nil
}

func (v *stubViews) WatchShopper(context.Context, func(*service.ShopperView) error) error {
	return nil
}

type stubPush struct{}

func (stubPush) Register(_ context.Context, req *service.RegisterRequest) (*models.PushSubscription, error) {
	if req.Role != "lister" && req.Role != "shopper" {
		return nil, service.ErrValidation
	}
	return &models.PushSubscription{ID: "p1", Role: models.Role(req.Role)}, nil
}

func (stubPush) List(context.Context, string) ([]models.PushSubscription, error) {
	return []models.PushSubscription{}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type fixture struct {
	catalog  *stubCatalog
	sessions *stubSessions
	views    *stubViews
	checks   map[string]Pinger
}

func newFixture() *fixture {
	return &fixture{
		catalog:  &stubCatalog{},
		sessions: &stubSessions{},
		views:    &stubViews{},
		checks:   map[string]Pinger{"postgres": stubPinger{}},
	}
}

func (f *fixture) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(f.catalog, f.sessions, f.views, stubPush{}, f.checks).SetupRoutes(router)
	return router
}

func (f *fixture) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router().ServeHTTP(w, req)
	return w
}

func TestHealthAndReadiness(t *testing.T) {
	f := newFixture()

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/ready", "").Code)

	f.checks["redis"] = stubPinger{err: errors.New("connection refused")}
	w := f.do(t, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestAddItem(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/api/v1/items", `{"name":"Milk","quantity":"2","preferred_store":"walmart"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "walmart", f.catalog.added.PreferredStore)

	var item models.Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, "Milk", item.Name)
}

func TestAddItemErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
		want int
	}{
		{"malformed body", nil, `{"name":`, http.StatusBadRequest},
		{"validation", service.ErrValidation, `{"name":""}`, http.StatusBadRequest},
		{"unknown store", service.ErrUnknownStore, `{"name":"a","quantity":"1"}`, http.StatusBadRequest},
		{"store failure", errors.New("db down"), `{"name":"a","quantity":"1"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.catalog.addErr = tt.err
			w := f.do(t, http.MethodPost, "/api/v1/items", tt.body)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "db down")
			}
		})
	}
}

func TestDeleteItem(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/v1/items/i1", "").Code)

	f.catalog.deleteErr = service.ErrItemNotFound
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/v1/items/i1", "").Code)
}

func TestStartSession(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/api/v1/sessions", `{"store_order":["aldi","shoprite"]}`, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "k1", f.sessions.startKey)
	assert.Equal(t, []string{"aldi", "shoprite"}, f.sessions.startOrder)

	w = f.do(t, http.MethodPost, "/api/v1/sessions", "")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, f.sessions.startOrder)
}

func TestStartSessionConflicts(t *testing.T) {
	f := newFixture()
	f.sessions.startErr = service.ErrActiveSessionExists
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/v1/sessions", "").Code)

	f.sessions.startErr = fmt.Errorf("%w: reordered", service.ErrInvalidStoreOrder)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/sessions", "").Code)
}

func TestResumeWithoutSession(t *testing.T) {
	f := newFixture()
	f.sessions.resumeState = &service.SessionState{State: session.StateNotStarted, CurrentIndex: -1}

	w := f.do(t, http.MethodGet, "/api/v1/sessions/active", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"NOT_STARTED"`)
}

func TestToggleForwardsLastKnownState(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/api/v1/sessions/s1/items/i1/toggle", `{"purchased":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.sessions.lastKnown)
	assert.False(t, *f.sessions.lastKnown)

	w = f.do(t, http.MethodPost, "/api/v1/sessions/s1/items/i1/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, f.sessions.lastKnown)

	f.sessions.toggleErr = service.ErrSessionCompleted
	assert.Equal(t, http.StatusConflict, f.do(t, http.MethodPost, "/api/v1/sessions/s1/items/i1/toggle", "").Code)

	f.sessions.toggleErr = fmt.Errorf("%w: i1", service.ErrItemNotFound)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/v1/sessions/s1/items/i1/toggle", "").Code)
}

func TestFinishStore(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/api/v1/sessions/s1/finish-store", `{"store":"aldi"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "aldi", f.sessions.finishFrom)
	assert.Contains(t, w.Body.String(), `"current_store":"walmart"`)
}

func TestSummaryStatuses(t *testing.T) {
	f := newFixture()
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/sessions/s1/summary", "").Code)

	f.sessions.summaryErr = service.ErrSessionNotCompleted
	assert.Equal(t, http.StatusUnprocessableEntity, f.do(t, http.MethodGet, "/api/v1/sessions/s1/summary", "").Code)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/sessions/s1", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/sessions/s1/visible?store=costco", "").Code)
}

func TestRegisterPush(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/api/v1/push/subscriptions", `{"role":"lister","subscription":{"endpoint":"x"}}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/push/subscriptions", `{"role":"admin","subscription":{}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamListerViewWritesSnapshots(t *testing.T) {
	f := newFixture()
	now := time.Now()
	f.views.snapshots = []*service.ListerView{
		{Items: []models.Item{{ID: "i1", Name: "Milk", CreatedAt: now}}},
		{Items: []models.Item{{ID: "i1", Name: "Milk", CreatedAt: now}, {ID: "i2", Name: "Eggs", CreatedAt: now}}},
	}

	w := f.do(t, http.MethodGet, "/api/v1/views/lister/stream", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, 2, strings.Count(w.Body.String(), "event:snapshot"))
	assert.Contains(t, w.Body.String(), "Eggs")
}

func TestStreamListerViewInitialFailure(t *testing.T) {
	f := newFixture()
	f.views.watchErr = errors.New("catalog unavailable")

	w := f.do(t, http.MethodGet, "/api/v1/views/lister/stream", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
