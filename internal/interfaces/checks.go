package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/bible"
	"github.com/versemate/offlinestore/internal/database/commentary"
	"github.com/versemate/offlinestore/internal/database/metadata"
	"github.com/versemate/offlinestore/internal/database/progress"
	"github.com/versemate/offlinestore/internal/database/settings"
	"github.com/versemate/offlinestore/internal/database/syncqueue"
	"github.com/versemate/offlinestore/internal/database/topics"
	"github.com/versemate/offlinestore/internal/database/userdata"
	"github.com/versemate/offlinestore/internal/http"
	"github.com/versemate/offlinestore/internal/outbox"
	"github.com/versemate/offlinestore/internal/references"
	"github.com/versemate/offlinestore/internal/remote"
	"github.com/versemate/offlinestore/internal/scheduler"
	"github.com/versemate/offlinestore/internal/seed"
	"github.com/versemate/offlinestore/internal/syncer"
	"github.com/versemate/offlinestore/internal/tasks"
)

// =============================================================================
// Storage
// =============================================================================

var _ database.SeedInstaller = (*seed.Installer)(nil)
var _ http.StorageChecker = (*database.Engine)(nil)

// =============================================================================
// Content Stores
// =============================================================================

var _ http.VerseReader = (*bible.Repository)(nil)
var _ references.VerseSource = (*bible.Repository)(nil)
var _ http.CommentaryReader = (*commentary.Repository)(nil)
var _ http.TopicReader = (*topics.Repository)(nil)
var _ http.UserDataReader = (*userdata.Repository)(nil)
var _ outbox.Mirror = (*userdata.Repository)(nil)
var _ http.ReferenceResolver = (*references.Resolver)(nil)

// =============================================================================
// Sync State
// =============================================================================

var _ http.SyncStatusReader = (*settings.Repository)(nil)
var _ http.SyncStateReader = (*settings.Repository)(nil)
var _ http.InstalledLister = (*metadata.Repository)(nil)
var _ http.ProgressLister = (*progress.Repository)(nil)
var _ http.OutboxCounter = (*syncqueue.Repository)(nil)

// =============================================================================
// Remote API
// =============================================================================

var _ syncer.Remote = (*remote.Client)(nil)
var _ outbox.Requester = (*remote.Client)(nil)

// =============================================================================
// Sync Orchestration
// =============================================================================

var _ http.SyncerDeps = (*syncer.Orchestrator)(nil)
var _ tasks.UserDataSyncer = (*syncer.Orchestrator)(nil)
var _ tasks.ResourceDownloader = (*syncer.Orchestrator)(nil)
var _ scheduler.AutoSyncer = (*syncer.Orchestrator)(nil)

// =============================================================================
// Outbox
// =============================================================================

var _ http.OutboxService = (*outbox.Processor)(nil)
var _ scheduler.OutboxDrainer = (*outbox.Processor)(nil)
var _ outbox.Refresher = (*tasks.Client)(nil)
var _ http.DownloadQueue = (*tasks.Client)(nil)
