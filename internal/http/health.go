package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/versemate/offlinestore/internal/database/settings"
	"github.com/versemate/offlinestore/internal/entities"
)

type HealthResponse struct {
	Status   string            `json:"status"`
	Time     string            `json:"time"`
	Version  string            `json:"version,omitempty"`
	Checks   map[string]string `json:"checks"`
	Messages []string          `json:"messages,omitempty"`
}

// StorageChecker reports whether the offline database is usable.
type StorageChecker interface {
	Ping(ctx context.Context) error
}

// SyncStatusReader reads the outcome of the last full sync.
type SyncStatusReader interface {
	GetSyncStatus(ctx context.Context) (settings.SyncStatus, error)
}

// OutboxCounter counts queued user mutations by status.
type OutboxCounter interface {
	CountByStatus(ctx context.Context) (map[entities.SyncActionStatus]int64, error)
}

type HealthController struct {
	storage StorageChecker
	status  SyncStatusReader
	outbox  OutboxCounter
	version string
}

func NewHealthController(storage StorageChecker, status SyncStatusReader, outbox OutboxCounter, version string) *HealthController {
	return &HealthController{
		storage: storage,
		status:  status,
		outbox:  outbox,
		version: version,
	}
}

// Status reports storage health plus the degraded states the UI explains to the user.
// Only a storage failure makes the service unhealthy.
func (h *HealthController) Status(c *gin.Context) {
	ctx := c.Request.Context()
	checks := make(map[string]string)
	var messages []string
	status := "healthy"

	if h.storage == nil {
		checks["storage"] = "not configured"
	} else if err := h.storage.Ping(ctx); err != nil {
		checks["storage"] = "error: " + err.Error()
		messages = append(messages, MessageStorageUnavailable)
		status = "unhealthy"
	} else {
		checks["storage"] = "ok"
	}

	if status == "healthy" && h.status != nil {
		if s, err := h.status.GetSyncStatus(ctx); err != nil {
			checks["sync"] = "error: " + err.Error()
		} else if s.Status == "failed" {
			checks["sync"] = "failed: " + s.Message
			messages = append(messages, MessageContentStale)
			status = "degraded"
		} else if s.Status == "" {
			checks["sync"] = "never"
		} else {
			checks["sync"] = s.Status
		}
	}

	if status != "unhealthy" && h.outbox != nil {
		if counts, err := h.outbox.CountByStatus(ctx); err != nil {
			checks["outbox"] = "error: " + err.Error()
		} else if counts[entities.SyncActionFailed] > 0 {
			checks["outbox"] = "failed actions pending"
			messages = append(messages, MessageChangesPending)
			status = "degraded"
		} else {
			checks["outbox"] = "ok"
		}
	}

	health := HealthResponse{
		Status:   status,
		Time:     time.Now().Format(time.RFC3339),
		Version:  h.version,
		Checks:   checks,
		Messages: messages,
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, health)
}
