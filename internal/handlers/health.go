package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"storyline/internal/contextutil"
	"storyline/internal/vectorstore"
)

// Pinger reports whether the database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// CollectionChecker reports on a vector collection. *vectorstore.QdrantStore
// satisfies it.
type CollectionChecker interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
	CollectionStats(ctx context.Context, collection string) (vectorstore.CollectionStats, error)
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	db                 Pinger
	vectorStore        CollectionChecker
	collectionName     string
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. vectorStore may be nil when
// the scene index is disabled; it is then reported as "disabled".
func NewHealthHandler(db Pinger, vectorStore CollectionChecker, collectionName string) *HealthHandler {
	return &HealthHandler{
		db:                 db,
		vectorStore:        vectorStore,
		collectionName:     collectionName,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`

	// Number of scene vectors in the index collection (only present when it is reachable)
	IndexedScenes *int `json:"indexed_scenes,omitempty"`
}

// ServeHTTP handles GET /api/health.
//
// The database is critical: without it the status is "unhealthy" and the
// response is 503. A missing vector collection only degrades the service,
// since related-scene search is optional.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.PingContext(checkCtx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		checks["database"] = "error"
		issues = append(issues, "database_unavailable")
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	var indexed *int
	if h.vectorStore == nil {
		checks["vector_store"] = "disabled"
	} else if stats, ok := h.checkVectorStore(checkCtx, logger); ok {
		checks["vector_store"] = "ok"
		indexed = &stats.Points
	} else {
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
		if status == "healthy" {
			status = "degraded"
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,

		IndexedScenes: indexed,
	}
	writeJSON(w, ctx, httpStatus, response)
}

// checkVectorStore checks if the vector store is accessible and returns the
// stats of the scene collection.
func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) (vectorstore.CollectionStats, bool) {
	exists, err := h.vectorStore.CollectionExists(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return vectorstore.CollectionStats{}, false
	}
	if !exists {
		logger.WarnContext(ctx, "vector store collection does not exist", "collection", h.collectionName)
		return vectorstore.CollectionStats{}, false
	}
	stats, err := h.vectorStore.CollectionStats(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store stats unavailable", "collection", h.collectionName, "error", err)
		return vectorstore.CollectionStats{}, false
	}
	return stats, true
}
