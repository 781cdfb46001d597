package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/syncer"
)

// ResourceDownloader downloads one resource named in the manifest.
type ResourceDownloader interface {
	DownloadResource(ctx context.Context, kind entities.ResourceKind, key string, onProgress syncer.ProgressFunc) error
}

// DownloadResourceTask downloads a Bible version, commentary language or topics
// language in the background. Progress is recorded in the progress table.
type DownloadResourceTask struct {
	Kind entities.ResourceKind `json:"kind"`
	Key  string                `json:"key"`
}

func (t DownloadResourceTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "download_resource",
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     15 * time.Minute,
		Retention:   keepFailures,
	}
}

// DownloadResourceProcessor creates a processor function for DownloadResourceTask.
func DownloadResourceProcessor(downloader ResourceDownloader) backlite.QueueProcessor[DownloadResourceTask] {
	return func(ctx context.Context, task DownloadResourceTask) error {
		if downloader == nil {
			return fmt.Errorf("downloader not configured")
		}

		resourceKey := entities.MetadataKey(task.Kind, task.Key)
		if err := downloader.DownloadResource(ctx, task.Kind, task.Key, nil); err != nil {
			return fmt.Errorf("download %s: %w", resourceKey, err)
		}

		log.Printf("[TASK] Downloaded %s", resourceKey)
		return nil
	}
}

func NewDownloadResourceQueue(downloader ResourceDownloader) backlite.Queue {
	return backlite.NewQueue(DownloadResourceProcessor(downloader))
}
