package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storyline/internal/service"
	"storyline/internal/storage"
)

func newTestEngine(t *testing.T) *service.Engine {
	t.Helper()
	db, err := storage.New(t.TempDir() + "/test.db")
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}
	engine := service.NewEngine(service.Options{
		Stories:    storage.NewStoryRepo(db),
		Characters: storage.NewCharacterRepo(db),
	})
	t.Cleanup(engine.Shutdown)
	return engine
}

func TestNewRouter(t *testing.T) {
	router := NewRouter(&Deps{Engine: newTestEngine(t)})

	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router := NewRouter(&Deps{
		Engine:  newTestEngine(t),
		Health:  ok,
		Metrics: ok,
	})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "GET /api/health",
			method:     http.MethodGet,
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /metrics",
			method:     http.MethodGet,
			path:       "/metrics",
			wantStatus: http.StatusOK,
		},
		{
			name:       "GET /api/stories lists stories",
			method:     http.MethodGet,
			path:       "/api/stories",
			wantStatus: http.StatusOK,
		},
		{
			name:       "POST /api/stories exists",
			method:     http.MethodPost,
			path:       "/api/stories",
			body:       "not json",
			wantStatus: http.StatusBadRequest, // Bad request due to invalid body, but route exists
		},
		{
			name:       "unknown story",
			method:     http.MethodGet,
			path:       "/api/stories/missing/scenes",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "events disabled",
			method:     http.MethodGet,
			path:       "/api/stories/missing/events",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "GET /api/stories/{id}/save method not allowed",
			method:     http.MethodGet,
			path:       "/api/stories/missing/save",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router := NewRouter(&Deps{Engine: newTestEngine(t)})

	req := httptest.NewRequest(http.MethodGet, "/api/stories", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	// Check CORS headers are present
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("GET /api/stories Content-Type = %q, want application/json", w.Header().Get("Content-Type"))
	}
}
