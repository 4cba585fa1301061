package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storyline/internal/vectorstore"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

type fakeCollections struct {
	exists   bool
	err      error
	points   int
	statsErr error
}

func (c fakeCollections) CollectionExists(context.Context, string) (bool, error) {
	return c.exists, c.err
}

func (c fakeCollections) CollectionStats(context.Context, string) (vectorstore.CollectionStats, error) {
	return vectorstore.CollectionStats{VectorSize: 768, Points: c.points, Status: "green"}, c.statsErr
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		db          Pinger
		vectorStore CollectionChecker
		wantStatus  int
		wantHealth  string
		wantVector  string
		wantIndexed *int
	}{
		{
			name:        "all healthy",
			method:      http.MethodGet,
			db:          fakePinger{},
			vectorStore: fakeCollections{exists: true, points: 12},
			wantStatus:  http.StatusOK,
			wantHealth:  "healthy",
			wantVector:  "ok",
			wantIndexed: intPtr(12),
		},
		{
			name:        "collection stats fail",
			method:      http.MethodGet,
			db:          fakePinger{},
			vectorStore: fakeCollections{exists: true, statsErr: errors.New("timeout")},
			wantStatus:  http.StatusOK,
			wantHealth:  "degraded",
			wantVector:  "error",
		},
		{
			name:       "index disabled",
			method:     http.MethodGet,
			db:         fakePinger{},
			wantStatus: http.StatusOK,
			wantHealth: "healthy",
			wantVector: "disabled",
		},
		{
			name:        "collection missing degrades",
			method:      http.MethodGet,
			db:          fakePinger{},
			vectorStore: fakeCollections{exists: false},
			wantStatus:  http.StatusOK,
			wantHealth:  "degraded",
			wantVector:  "error",
		},
		{
			name:        "database down",
			method:      http.MethodGet,
			db:          fakePinger{err: errors.New("disk I/O error")},
			vectorStore: fakeCollections{err: errors.New("connection refused")},
			wantStatus:  http.StatusServiceUnavailable,
			wantHealth:  "unhealthy",
			wantVector:  "error",
		},
		{
			name:       "method not allowed",
			method:     http.MethodPost,
			db:         fakePinger{},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.db, tt.vectorStore, "scenes")
			req := httptest.NewRequest(tt.method, "/api/health", nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("ServeHTTP() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if tt.wantHealth == "" {
				return
			}
			resp := decode[HealthResponse](t, w)
			if resp.Status != tt.wantHealth {
				t.Errorf("HealthResponse.Status = %q, want %q", resp.Status, tt.wantHealth)
			}
			if resp.Checks["vector_store"] != tt.wantVector {
				t.Errorf("vector_store check = %q, want %q", resp.Checks["vector_store"], tt.wantVector)
			}
			switch {
			case tt.wantIndexed == nil && resp.IndexedScenes != nil:
				t.Errorf("HealthResponse.IndexedScenes = %d, want absent", *resp.IndexedScenes)
			case tt.wantIndexed != nil && (resp.IndexedScenes == nil || *resp.IndexedScenes != *tt.wantIndexed):
				t.Errorf("HealthResponse.IndexedScenes = %v, want %d", resp.IndexedScenes, *tt.wantIndexed)
			}
			if resp.Status != "healthy" && len(resp.Issues) == 0 {
				t.Error("HealthResponse.Issues empty for a non-healthy status")
			}
		})
	}
}

func intPtr(n int) *int { return &n }
