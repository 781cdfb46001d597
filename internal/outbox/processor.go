// Package outbox replays user mutations made while offline.
//
// Actions are replayed one at a time in the order they were queued. A failed action
// is marked FAILED with its retry count incremented and the drain moves on; it is
// retried on the next drain. After a drain the user's data is refreshed from the
// server so server-assigned ids replace local ones.
package outbox

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/settings"
	"github.com/versemate/offlinestore/internal/database/syncqueue"
	"github.com/versemate/offlinestore/internal/database/userdata"
	"github.com/versemate/offlinestore/internal/entities"
)

// Requester sends one authenticated API request.
type Requester interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// Refresher schedules a full user-data refresh. Implementations should not block
// on the download itself.
type Refresher interface {
	RefreshUserData(ctx context.Context) error
}

// Result counts the outcome of one drain.
type Result struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Processor queues and replays actions.
type Processor struct {
	queue     *syncqueue.Repository
	mirror    Mirror
	settings  *settings.Repository
	client    Requester
	refresher Refresher
	now       func() time.Time

	mu sync.Mutex
}

// NewProcessor creates a processor over the engine's outbox. refresher may be nil.
func NewProcessor(engine *database.Engine, client Requester, refresher Refresher) *Processor {
	return &Processor{
		queue:     syncqueue.NewRepository(engine),
		mirror:    userdata.NewRepository(engine),
		settings:  settings.NewRepository(engine),
		client:    client,
		refresher: refresher,
		now:       time.Now,
	}
}

// SetRefresher replaces the refresher; used when the task queue starts after the processor.
func (p *Processor) SetRefresher(r Refresher) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refresher = r
}

// Enqueue queues an action and applies it to the local mirror. A mirror failure is
// logged only; the queued action is what matters.
func (p *Processor) Enqueue(ctx context.Context, a Action) (*entities.PendingSyncAction, error) {
	a = withTempID(a)
	if err := validate(a); err != nil {
		return nil, err
	}
	payload, err := Encode(a)
	if err != nil {
		return nil, fmt.Errorf("encode action: %w", err)
	}
	row, err := p.queue.Enqueue(ctx, a.EntityType(), a.Kind(), payload)
	if err != nil {
		return nil, err
	}
	if err := a.mirror(ctx, p.mirror, p.now()); err != nil {
		log.Printf("[OUTBOX] Failed to apply %s %s locally: %v", a.EntityType(), a.Kind(), err)
	}
	return row, nil
}

// Pending returns the queued actions in replay order.
func (p *Processor) Pending(ctx context.Context) ([]entities.PendingSyncAction, error) {
	return p.queue.ListQueued(ctx)
}

// ProcessSyncQueue replays every queued action. Only storage errors and
// cancellation are returned; per-action failures are recorded on the row.
func (p *Processor) ProcessSyncQueue(ctx context.Context) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result Result
	rows, err := p.queue.ListQueued(ctx)
	if err != nil {
		return result, err
	}
	if len(rows) == 0 {
		return result, nil
	}
	log.Printf("[OUTBOX] Replaying %d queued actions", len(rows))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Attempted++
		tempID, serverID, err := p.replay(ctx, row)
		if err != nil {
			result.Failed++
			log.Printf("[OUTBOX] Action %d (%s %s) failed, attempt %d: %v",
				row.ID, row.Type, row.Action, row.RetryCount+1, err)
			if markErr := p.queue.MarkFailed(ctx, row.ID, err.Error()); markErr != nil {
				return result, fmt.Errorf("mark action %d failed: %w", row.ID, markErr)
			}
			continue
		}

		// Later actions on a note created offline must target its server id, in this
		// drain and in any later one.
		var rewrites map[int64]string
		if serverID != "" {
			rewrites = pointAtServerID(rows[i+1:], tempID, serverID)
		}
		if err := p.queue.DeleteAndRewrite(ctx, row.ID, rewrites); err != nil {
			return result, fmt.Errorf("delete action %d: %w", row.ID, err)
		}
		result.Succeeded++
	}

	log.Printf("[OUTBOX] Drain finished: %d succeeded, %d failed", result.Succeeded, result.Failed)
	if err := p.settings.SetLastOutboxDrainAt(ctx, p.now()); err != nil {
		log.Printf("[OUTBOX] Failed to record drain time: %v", err)
	}
	if p.refresher != nil {
		if err := p.refresher.RefreshUserData(ctx); err != nil {
			log.Printf("[OUTBOX] User data refresh failed: %v", err)
		}
	}
	return result, nil
}

// replay sends one action. For a note created offline it also returns the
// temporary id and the id the server assigned.
func (p *Processor) replay(ctx context.Context, row entities.PendingSyncAction) (tempID, serverID string, err error) {
	a, err := Decode(row)
	if err != nil {
		return "", "", err
	}

	if err := p.queue.MarkSyncing(ctx, row.ID); err != nil {
		return "", "", fmt.Errorf("mark syncing: %w", err)
	}

	req := a.request()
	if nc, ok := a.(NoteCreate); ok {
		var created struct {
			NoteID string `json:"note_id"`
		}
		if err := p.client.Do(ctx, req.method, req.path, req.query, req.body, &created); err != nil {
			return "", "", err
		}
		if nc.TempID == "" {
			return "", "", nil
		}
		return nc.TempID, created.NoteID, nil
	}
	return "", "", p.client.Do(ctx, req.method, req.path, req.query, req.body, nil)
}

// pointAtServerID rewrites updates and deletes of a just-created note in rest to use
// its server id. rest is updated in place; the new payloads are returned by row id.
func pointAtServerID(rest []entities.PendingSyncAction, tempID, serverID string) map[int64]string {
	payloads := map[int64]string{}
	for i := range rest {
		row := &rest[i]
		if row.Type != entities.SyncEntityNote {
			continue
		}
		a, err := Decode(*row)
		if err != nil {
			continue
		}
		switch v := a.(type) {
		case NoteUpdate:
			if v.NoteID != tempID {
				continue
			}
			v.NoteID = serverID
			a = v
		case NoteDelete:
			if v.NoteID != tempID {
				continue
			}
			v.NoteID = serverID
			a = v
		default:
			continue
		}
		payload, err := Encode(a)
		if err != nil {
			continue
		}
		row.Payload = payload
		payloads[row.ID] = payload
	}
	return payloads
}
