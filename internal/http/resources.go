package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/remote"
	"github.com/versemate/offlinestore/internal/syncer"
)

// ResourceSyncer downloads and removes offline content.
type ResourceSyncer interface {
	FetchManifest(ctx context.Context) (*remote.Manifest, error)
	LanguageBundles(ctx context.Context, manifest *remote.Manifest) ([]syncer.LanguageBundle, error)
	DownloadResource(ctx context.Context, kind entities.ResourceKind, key string, onProgress syncer.ProgressFunc) error
	DeleteResource(ctx context.Context, kind entities.ResourceKind, key string) error
	DownloadBundle(ctx context.Context, language string, onProgress syncer.ProgressFunc) error
	DeleteBundle(ctx context.Context, language string) error
}

// InstalledLister lists the metadata rows of installed resources.
type InstalledLister interface {
	List(ctx context.Context) ([]entities.ResourceMetadata, error)
}

// ProgressLister lists recorded download progress.
type ProgressLister interface {
	List(ctx context.Context) ([]entities.DownloadProgress, error)
}

// DownloadQueue runs downloads in the background task queue.
type DownloadQueue interface {
	QueueDownload(ctx context.Context, kind entities.ResourceKind, key string) (string, error)
}

type ResourcesController struct {
	syncer    ResourceSyncer
	installed InstalledLister
	progress  ProgressLister
	queue     DownloadQueue
}

// NewResourcesController creates the controller. queue may be nil, in which case
// downloads run inside the request.
func NewResourcesController(syncer ResourceSyncer, installed InstalledLister, progress ProgressLister, queue DownloadQueue) *ResourcesController {
	return &ResourcesController{syncer: syncer, installed: installed, progress: progress, queue: queue}
}

// ListInstalled returns the metadata of every installed resource
// GET /api/resources
func (rc *ResourcesController) ListInstalled(c *gin.Context) {
	rows, err := rc.installed.List(c.Request.Context())
	if err != nil {
		respondFailure(c, err, "list installed resources")
		return
	}
	if rows == nil {
		rows = []entities.ResourceMetadata{}
	}
	c.JSON(http.StatusOK, rows)
}

// GetManifest proxies the remote manifest
// GET /api/resources/manifest
func (rc *ResourcesController) GetManifest(c *gin.Context) {
	manifest, err := rc.syncer.FetchManifest(c.Request.Context())
	if err != nil {
		respondFailure(c, err, "fetch manifest")
		return
	}
	c.JSON(http.StatusOK, manifest)
}

// ListProgress returns download progress per resource
// GET /api/resources/progress
func (rc *ResourcesController) ListProgress(c *gin.Context) {
	rows, err := rc.progress.List(c.Request.Context())
	if err != nil {
		respondFailure(c, err, "list download progress")
		return
	}
	if rows == nil {
		rows = []entities.DownloadProgress{}
	}
	c.JSON(http.StatusOK, rows)
}

// Download installs one resource, in the background when a task queue is configured
// POST /api/resources/:kind/:key/download
func (rc *ResourcesController) Download(c *gin.Context) {
	kind, key, ok := parseResourceParams(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if rc.queue != nil {
		taskID, err := rc.queue.QueueDownload(ctx, kind, key)
		if err != nil {
			respondFailure(c, err, "queue download")
			return
		}
		respondAccepted(c, "download queued", gin.H{"task_id": taskID, "resource_key": entities.MetadataKey(kind, key)})
		return
	}

	if err := rc.syncer.DownloadResource(ctx, kind, key, nil); err != nil {
		respondFailure(c, err, "download resource")
		return
	}
	respondSuccess(c, "downloaded "+entities.MetadataKey(kind, key))
}

// Delete removes one installed resource
// DELETE /api/resources/:kind/:key
func (rc *ResourcesController) Delete(c *gin.Context) {
	kind, key, ok := parseResourceParams(c)
	if !ok {
		return
	}
	if err := rc.syncer.DeleteResource(c.Request.Context(), kind, key); err != nil {
		respondFailure(c, err, "delete resource")
		return
	}
	respondSuccess(c, "deleted "+entities.MetadataKey(kind, key))
}

// ListBundles groups the manifest into per-language bundles with their install state
// GET /api/bundles
func (rc *ResourcesController) ListBundles(c *gin.Context) {
	ctx := c.Request.Context()
	manifest, err := rc.syncer.FetchManifest(ctx)
	if err != nil {
		respondFailure(c, err, "fetch manifest")
		return
	}
	bundles, err := rc.syncer.LanguageBundles(ctx, manifest)
	if err != nil {
		respondFailure(c, err, "build bundles")
		return
	}
	if bundles == nil {
		bundles = []syncer.LanguageBundle{}
	}
	c.JSON(http.StatusOK, bundles)
}

// DownloadBundle installs every missing or stale member of a language bundle
// POST /api/bundles/:language/download
func (rc *ResourcesController) DownloadBundle(c *gin.Context) {
	language := c.Param("language")
	if err := rc.syncer.DownloadBundle(c.Request.Context(), language, nil); err != nil {
		respondFailure(c, err, "download bundle")
		return
	}
	respondSuccess(c, "downloaded bundle "+language)
}

// DeleteBundle removes every installed member of a language bundle
// DELETE /api/bundles/:language
func (rc *ResourcesController) DeleteBundle(c *gin.Context) {
	language := c.Param("language")
	if err := rc.syncer.DeleteBundle(c.Request.Context(), language); err != nil {
		respondFailure(c, err, "delete bundle")
		return
	}
	respondSuccess(c, "deleted bundle "+language)
}
