package http

// RouterConfig contains all dependencies needed to create the HTTP router.
// Optional dependencies left nil disable their routes.
type RouterConfig struct {
	// Storage and sync state
	Storage     StorageChecker
	SyncState   SyncStateReader
	OutboxCount OutboxCounter

	// Sync
	Syncer    SyncerDeps
	Installed InstalledLister
	Progress  ProgressLister

	// Background download queue (optional)
	Downloads DownloadQueue

	// Content reads
	Verses     VerseReader
	Commentary CommentaryReader
	Topics     TopicReader
	UserData   UserDataReader
	Resolver   ReferenceResolver

	// Mutation outbox
	Outbox OutboxService

	// Application info
	Version string
}

// SyncerDeps is satisfied by the sync orchestrator.
type SyncerDeps interface {
	ResourceSyncer
	ContentSyncer
}
