// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Storage
//
//   - SeedInstaller: Copies the bundled image before the first open (internal/database/database.go)
//   - StorageChecker: Health probe of the open handle (internal/http/health.go)
//
// ## Content Stores
//
//   - VerseReader, CommentaryReader, TopicReader, UserDataReader: Offline reads (internal/http/content.go)
//   - VerseSource: Verse lookups for placeholder expansion (internal/references/resolver.go)
//   - Mirror: Local copy of user data updated before replay (internal/outbox/actions.go)
//
// ## Remote API
//
//   - Remote: Manifest and bulk downloads (internal/syncer/syncer.go)
//   - Requester: Authenticated JSON calls for replayed mutations (internal/outbox/processor.go)
//
// ## Background Work
//
//   - UserDataSyncer, ResourceDownloader: Task queue processors (internal/tasks/)
//   - AutoSyncer, OutboxDrainer: Cron jobs (internal/scheduler/sync_scheduler.go)
//   - Refresher: Post-drain user data refresh (internal/outbox/processor.go)
//
// # Adding a New Resource Kind
//
//  1. Add the ResourceKind constant and its table in internal/entities/ and
//     internal/database/schema.go
//
//  2. Create a repository under internal/database/ that writes through the engine:
//
//     type Repository struct { engine *database.Engine }
//
//     func NewRepository(engine *database.Engine) *Repository
//
//     func (r *Repository) Insert(ctx context.Context, key string, rows []Row) error {
//     return database.ReplaceInChunks(ctx, r.engine, purge, rows, batchSize)
//     }
//
//  3. Teach the orchestrator to fetch and store it in internal/syncer/
//
// # Adding a New Outbox Action
//
//  1. Define the variant in internal/outbox/actions.go with request and mirror
//     methods, add its checks to validate and register it in decoders
//
//  2. Add a test replaying it against the fake requester
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
