// Package database owns the offline SQLite file and everything needed to keep it usable.
//
// # Architecture
//
//	database/
//	├── database.go      # Engine: open, seed, recover, canary, reset
//	├── exec.go          # ExecSafe, WriteChunks, batch helpers
//	├── schema.go        # CREATE TABLE statements shared with the seed image
//	├── migrations.go    # Forward-only migrations driven by pragma_table_info
//	├── bible/           # Downloaded Bible versions
//	├── commentary/      # Per-language commentary
//	├── topics/          # Topics, references and topic explanations
//	├── userdata/        # Mirror of the user's notes, highlights and bookmarks
//	├── metadata/        # What is installed and how fresh it is
//	├── syncqueue/       # Queue of mutations made while offline
//	├── settings/        # Small persisted flags (last sync time)
//	└── progress/        # Download progress for the UI
//
// # Using the Engine
//
// One Engine is created at startup and handed to every repository. Repositories never
// cache a *gorm.DB; they call Initialize (reads) or ExecSafe/WriteChunks (writes) on
// every operation, so the first caller opens the file and a failed engine is noticed
// everywhere at once:
//
//	engine := database.NewEngine(path, database.WithSeedInstaller(installer))
//	verses := bible.NewRepository(engine)
//	ok, err := verses.IsVersionDownloaded(ctx, "NASB1995")
//
// # Recovery
//
// If the open, schema or canary write fails, the file and its journals are deleted and
// the open is retried once. A second failure puts the engine into a permanently failed
// state; Initialize then returns ErrPermanentlyFailed until Reset is called.
//
// # Adding a New Domain
//
//  1. Add the table to Schema (and to the seed generator, which reuses it)
//  2. Create a sub-package with a Repository holding *database.Engine
//  3. Route reads through Initialize and writes through ExecSafe
//  4. Add a compile-time interface check where a consumer depends on it
package database
