package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/versemate/offlinestore/internal/database/settings"
	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/outbox"
	"github.com/versemate/offlinestore/internal/syncer"
)

// ContentSyncer runs update checks and full syncs.
type ContentSyncer interface {
	CheckAndSyncUpdates(ctx context.Context, onProgress syncer.ProgressFunc) (*syncer.Report, error)
	RunFullSync(ctx context.Context)
	IsSyncDue(ctx context.Context) (bool, error)
}

// SyncStateReader reads the persisted sync and drain state.
type SyncStateReader interface {
	GetSyncStatus(ctx context.Context) (settings.SyncStatus, error)
	LastOutboxDrainAt(ctx context.Context) (time.Time, bool, error)
}

// OutboxService queues and replays user mutations.
type OutboxService interface {
	Enqueue(ctx context.Context, a outbox.Action) (*entities.PendingSyncAction, error)
	Pending(ctx context.Context) ([]entities.PendingSyncAction, error)
	ProcessSyncQueue(ctx context.Context) (outbox.Result, error)
}

type SyncController struct {
	syncer ContentSyncer
	state  SyncStateReader
	outbox OutboxService
}

func NewSyncController(syncer ContentSyncer, state SyncStateReader, outbox OutboxService) *SyncController {
	return &SyncController{syncer: syncer, state: state, outbox: outbox}
}

// SyncStatusResponse describes the last sync and whether another is due.
type SyncStatusResponse struct {
	LastSyncAt        *time.Time `json:"last_sync_at,omitempty"`
	Status            string     `json:"status,omitempty"`
	Message           string     `json:"message,omitempty"`
	Due               bool       `json:"due"`
	LastOutboxDrainAt *time.Time `json:"last_outbox_drain_at,omitempty"`
	PendingActions    int        `json:"pending_actions"`
}

// GetStatus returns the sync state
// GET /api/sync/status
func (sc *SyncController) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	status, err := sc.state.GetSyncStatus(ctx)
	if err != nil {
		respondFailure(c, err, "get sync status")
		return
	}
	due, err := sc.syncer.IsSyncDue(ctx)
	if err != nil {
		respondFailure(c, err, "check sync due")
		return
	}
	resp := SyncStatusResponse{
		LastSyncAt: status.LastSyncAt,
		Status:     status.Status,
		Message:    status.Message,
		Due:        due,
	}
	if drained, ok, err := sc.state.LastOutboxDrainAt(ctx); err != nil {
		respondFailure(c, err, "get last drain")
		return
	} else if ok {
		resp.LastOutboxDrainAt = &drained
	}
	pending, err := sc.outbox.Pending(ctx)
	if err != nil {
		respondFailure(c, err, "count pending actions")
		return
	}
	resp.PendingActions = len(pending)

	c.JSON(http.StatusOK, resp)
}

// CheckUpdates re-downloads installed resources that changed on the server
// POST /api/sync/updates
func (sc *SyncController) CheckUpdates(c *gin.Context) {
	report, err := sc.syncer.CheckAndSyncUpdates(c.Request.Context(), nil)
	if err != nil {
		if report == nil {
			respondFailure(c, err, "check updates")
			return
		}
		// Partial failure: the report says which resources are stale.
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: MessageContentStale, Code: CodeSyncFailed, Details: report})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RunFullSync runs a full sync now, regardless of the interval
// POST /api/sync/full
func (sc *SyncController) RunFullSync(c *gin.Context) {
	ctx := c.Request.Context()
	sc.syncer.RunFullSync(ctx)

	status, err := sc.state.GetSyncStatus(ctx)
	if err != nil {
		respondFailure(c, err, "get sync status")
		return
	}
	if status.Status == "failed" {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: MessageContentStale, Code: CodeSyncFailed, Details: status})
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListOutbox returns queued mutations in replay order
// GET /api/outbox
func (sc *SyncController) ListOutbox(c *gin.Context) {
	rows, err := sc.outbox.Pending(c.Request.Context())
	if err != nil {
		respondFailure(c, err, "list outbox")
		return
	}
	if rows == nil {
		rows = []entities.PendingSyncAction{}
	}
	c.JSON(http.StatusOK, rows)
}

type enqueueRequest struct {
	Type    entities.SyncEntityType `json:"type" binding:"required"`
	Action  entities.SyncActionKind `json:"action" binding:"required"`
	Payload json.RawMessage         `json:"payload" binding:"required"`
}

// Enqueue queues a user mutation and applies it to the local mirror
// POST /api/outbox
func (sc *SyncController) Enqueue(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "type, action and payload are required")
		return
	}

	action, err := outbox.Decode(entities.PendingSyncAction{
		Type:    req.Type,
		Action:  req.Action,
		Payload: string(req.Payload),
	})
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	row, err := sc.outbox.Enqueue(c.Request.Context(), action)
	if err != nil {
		respondFailure(c, err, "enqueue action")
		return
	}
	respondCreated(c, row)
}

// Drain replays the outbox now
// POST /api/outbox/drain
func (sc *SyncController) Drain(c *gin.Context) {
	result, err := sc.outbox.ProcessSyncQueue(c.Request.Context())
	if err != nil {
		respondFailure(c, err, "drain outbox")
		return
	}
	if result.Failed > 0 {
		c.JSON(http.StatusOK, gin.H{"result": result, "message": MessageChangesPending, "code": CodeChangesPending})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
