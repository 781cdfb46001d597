package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/versemate/offlinestore/internal/remote"
)

// UserDataSyncer replaces the local user-data mirror with the server copy.
type UserDataSyncer interface {
	SyncUserData(ctx context.Context) error
}

// RefreshUserDataTask re-downloads the user's notes, highlights and bookmarks. It is
// queued after every outbox drain so server-assigned ids replace local ones.
type RefreshUserDataTask struct {
	Reason string `json:"reason,omitempty"`
}

func (t RefreshUserDataTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_user_data",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention:   keepFailures,
	}
}

// RefreshUserDataProcessor creates a processor function for RefreshUserDataTask.
// An expired session is not retried: the next attempt would fail the same way.
func RefreshUserDataProcessor(syncer UserDataSyncer) backlite.QueueProcessor[RefreshUserDataTask] {
	return func(ctx context.Context, task RefreshUserDataTask) error {
		if syncer == nil {
			return fmt.Errorf("user data syncer not configured")
		}

		err := syncer.SyncUserData(ctx)
		if errors.Is(err, remote.ErrSessionExpired) {
			log.Printf("[TASK] User data refresh skipped (%s): session expired", task.Reason)
			return nil
		}
		if err != nil {
			return fmt.Errorf("refresh user data: %w", err)
		}

		log.Printf("[TASK] User data refreshed (%s)", task.Reason)
		return nil
	}
}

func NewRefreshUserDataQueue(syncer UserDataSyncer) backlite.Queue {
	return backlite.NewQueue(RefreshUserDataProcessor(syncer))
}
