package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(SecurityHeadersMiddleware())

	// Health endpoints
	health := NewHealthController(cfg.Storage, cfg.SyncState, cfg.OutboxCount, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")
	api.Use(NoStoreMiddleware())

	// Resource and bundle endpoints
	if cfg.Syncer != nil && cfg.Installed != nil && cfg.Progress != nil {
		resources := NewResourcesController(cfg.Syncer, cfg.Installed, cfg.Progress, cfg.Downloads)
		api.GET("/resources", resources.ListInstalled)
		api.GET("/resources/manifest", resources.GetManifest)
		api.GET("/resources/progress", resources.ListProgress)
		api.POST("/resources/:kind/:key/download", resources.Download)
		api.DELETE("/resources/:kind/:key", resources.Delete)
		api.GET("/bundles", resources.ListBundles)
		api.POST("/bundles/:language/download", resources.DownloadBundle)
		api.DELETE("/bundles/:language", resources.DeleteBundle)
	}

	// Content endpoints
	if cfg.Verses != nil && cfg.Commentary != nil && cfg.Topics != nil && cfg.UserData != nil && cfg.Resolver != nil {
		content := NewContentController(cfg.Verses, cfg.Commentary, cfg.Topics, cfg.UserData, cfg.Resolver)
		api.GET("/bible/:version/:book/:chapter", content.GetChapter)
		api.GET("/commentary/:language/:book/:chapter", content.GetCommentary)
		api.GET("/topics", content.ListTopics)
		api.GET("/topics/:id", content.GetTopic)
		api.GET("/topics/:id/explanation", content.GetTopicExplanation)
		api.GET("/user/:book/:chapter", content.GetUserChapter)
		api.POST("/references/resolve", content.ResolveReferences)
	}

	// Sync and outbox endpoints
	if cfg.Syncer != nil && cfg.SyncState != nil && cfg.Outbox != nil {
		sync := NewSyncController(cfg.Syncer, cfg.SyncState, cfg.Outbox)
		api.GET("/sync/status", sync.GetStatus)
		api.POST("/sync/updates", sync.CheckUpdates)
		api.POST("/sync/full", sync.RunFullSync)
		api.GET("/outbox", sync.ListOutbox)
		api.POST("/outbox", sync.Enqueue)
		api.POST("/outbox/drain", sync.Drain)
	}

	return router
}
