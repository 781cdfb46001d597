package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/syncqueue"
	"github.com/versemate/offlinestore/internal/entities"
)

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when storage is open", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()

		w := env.do(t, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		response := decode[HealthResponse](t, w)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["storage"])
		assert.Equal(t, "never", response.Checks["sync"])
		assert.Empty(t, response.Messages)
		assert.NotEmpty(t, response.Time)
	})

	t.Run("reports not configured storage", func(t *testing.T) {
		controller := NewHealthController(nil, nil, nil, "1.0.0")

		router := gin.New()
		router.GET("/health", controller.Status)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decode[HealthResponse](t, w)
		assert.Equal(t, "not configured", response.Checks["storage"])
	})

	t.Run("returns unhealthy when storage failed permanently", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

		engine := database.NewEngine(filepath.Join(blocker, "offline.db"))
		_, err := engine.Initialize(context.Background())
		require.Error(t, err)

		controller := NewHealthController(engine, nil, nil, "1.0.0")
		router := gin.New()
		router.GET("/health", controller.Status)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/health", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		response := decode[HealthResponse](t, w)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["storage"], "error")
		assert.Equal(t, []string{MessageStorageUnavailable}, response.Messages)
	})

	t.Run("is degraded after a failed sync", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()
		require.NoError(t, env.settings.SetSyncStatus(context.Background(), "failed", "status 500"))

		w := env.do(t, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)

		response := decode[HealthResponse](t, w)
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "failed: status 500", response.Checks["sync"])
		assert.Contains(t, response.Messages, MessageContentStale)
	})

	t.Run("is degraded while changes are failing to sync", func(t *testing.T) {
		env, cleanup := setupTestEnv(t)
		defer cleanup()
		ctx := context.Background()

		queue := syncqueue.NewRepository(env.engine)
		row, err := queue.Enqueue(ctx, entities.SyncEntityNote, entities.SyncActionDelete, `{"note_id":"n1"}`)
		require.NoError(t, err)
		require.NoError(t, queue.MarkFailed(ctx, row.ID, errors.New("status 500").Error()))

		w := env.do(t, http.MethodGet, "/health", "")
		response := decode[HealthResponse](t, w)
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, []string{MessageChangesPending}, response.Messages)
	})
}
