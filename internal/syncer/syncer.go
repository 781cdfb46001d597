// Package syncer keeps the offline store in step with the server. It compares the
// remote manifest with local metadata, re-downloads resources that changed, and
// answers whether the periodic background sync is due.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/bible"
	"github.com/versemate/offlinestore/internal/database/commentary"
	"github.com/versemate/offlinestore/internal/database/metadata"
	"github.com/versemate/offlinestore/internal/database/progress"
	"github.com/versemate/offlinestore/internal/database/settings"
	"github.com/versemate/offlinestore/internal/database/topics"
	"github.com/versemate/offlinestore/internal/database/userdata"
	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/remote"
)

// ErrNotOffered is returned for a resource or language missing from the manifest.
var ErrNotOffered = errors.New("not offered by the server")

// DefaultInterval is how long after a full sync the next one becomes due.
const DefaultInterval = 24 * time.Hour

// Remote is the part of the API client the orchestrator needs.
type Remote interface {
	FetchManifest(ctx context.Context) (*remote.Manifest, error)
	FetchBible(ctx context.Context, versionKey string) ([]entities.Verse, int64, error)
	FetchCommentaries(ctx context.Context, languageCode string) ([]entities.CommentaryEntry, int64, error)
	FetchTopics(ctx context.Context, languageCode string) (*entities.TopicsPayload, int64, error)
	FetchUserData(ctx context.Context) (*entities.UserData, int64, error)
}

// ProgressFunc receives coarse download progress (0, 10, 50, 90, 100) per resource key.
type ProgressFunc func(resourceKey string, percent int)

// Orchestrator downloads resources and keeps their metadata current.
type Orchestrator struct {
	remote     Remote
	bible      *bible.Repository
	commentary *commentary.Repository
	topics     *topics.Repository
	userData   *userdata.Repository
	metadata   *metadata.Repository
	settings   *settings.Repository
	progress   *progress.Repository
	interval   time.Duration
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInterval sets the auto-sync interval.
func WithInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator writing through engine.
func New(engine *database.Engine, client Remote, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		remote:     client,
		bible:      bible.NewRepository(engine),
		commentary: commentary.NewRepository(engine),
		topics:     topics.NewRepository(engine),
		userData:   userdata.NewRepository(engine),
		metadata:   metadata.NewRepository(engine),
		settings:   settings.NewRepository(engine),
		progress:   progress.NewRepository(engine),
		interval:   DefaultInterval,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FetchManifest returns the remote manifest.
func (o *Orchestrator) FetchManifest(ctx context.Context) (*remote.Manifest, error) {
	return o.remote.FetchManifest(ctx)
}

// DownloadResource downloads one resource named in the manifest and records its metadata.
func (o *Orchestrator) DownloadResource(ctx context.Context, kind entities.ResourceKind, key string, onProgress ProgressFunc) error {
	if kind == entities.ResourceUserData {
		return o.SyncUserData(ctx)
	}

	manifest, err := o.remote.FetchManifest(ctx)
	if err != nil {
		return err
	}
	entry, ok := lookup(manifest, kind, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotOffered, entities.MetadataKey(kind, key))
	}
	return o.download(ctx, kind, key, entry.UpdatedAt, onProgress)
}

// DeleteResource removes a downloaded resource and its metadata.
func (o *Orchestrator) DeleteResource(ctx context.Context, kind entities.ResourceKind, key string) error {
	var err error
	switch kind {
	case entities.ResourceBible:
		err = o.bible.DeleteVersion(ctx, key)
	case entities.ResourceCommentary:
		err = o.commentary.DeleteLanguage(ctx, key)
	case entities.ResourceTopics:
		err = o.topics.DeleteLanguage(ctx, key)
	default:
		return fmt.Errorf("cannot delete resource kind %q", kind)
	}
	if err != nil {
		return err
	}
	if err := o.progress.Clear(ctx, entities.MetadataKey(kind, key)); err != nil {
		log.Printf("[SYNC] Failed to clear progress for %s: %v", entities.MetadataKey(kind, key), err)
	}
	return nil
}

// SyncUserData replaces the local mirror of the user's content with the server's.
// A rejected token surfaces as remote.ErrSessionExpired.
func (o *Orchestrator) SyncUserData(ctx context.Context) error {
	data, size, err := o.remote.FetchUserData(ctx)
	if err != nil {
		return err
	}
	if err := o.userData.ReplaceAll(ctx, *data); err != nil {
		return fmt.Errorf("store user data: %w", err)
	}
	now := database.FormatTime(o.now())
	return o.metadata.Upsert(ctx, entities.ResourceMetadata{
		ResourceKey:   entities.MetadataKey(entities.ResourceUserData, ""),
		LastUpdatedAt: now,
		DownloadedAt:  now,
		SizeBytes:     size,
	})
}

// download fetches and stores one resource, then writes its metadata row.
func (o *Orchestrator) download(ctx context.Context, kind entities.ResourceKind, key, updatedAt string, onProgress ProgressFunc) (err error) {
	resourceKey := entities.MetadataKey(kind, key)
	report := func(percent int) {
		if onProgress != nil {
			onProgress(resourceKey, percent)
		}
		if err := o.progress.Update(ctx, resourceKey, percent); err != nil {
			log.Printf("[SYNC] Failed to record progress for %s: %v", resourceKey, err)
		}
	}

	if err := o.progress.Start(ctx, resourceKey); err != nil {
		log.Printf("[SYNC] Failed to record progress for %s: %v", resourceKey, err)
	}
	defer func() {
		var perr error
		if err != nil {
			perr = o.progress.Fail(ctx, resourceKey, err)
		} else {
			perr = o.progress.Complete(ctx, resourceKey)
		}
		if perr != nil {
			log.Printf("[SYNC] Failed to record progress for %s: %v", resourceKey, perr)
		}
	}()

	log.Printf("[SYNC] Downloading %s", resourceKey)
	report(0)
	report(10)

	var size int64
	switch kind {
	case entities.ResourceBible:
		var verses []entities.Verse
		if verses, size, err = o.remote.FetchBible(ctx, key); err != nil {
			return err
		}
		report(50)
		if err = o.bible.InsertVerses(ctx, key, verses); err != nil {
			return fmt.Errorf("store %s: %w", resourceKey, err)
		}
	case entities.ResourceCommentary:
		var entries []entities.CommentaryEntry
		if entries, size, err = o.remote.FetchCommentaries(ctx, key); err != nil {
			return err
		}
		report(50)
		if err = o.commentary.InsertCommentaries(ctx, key, entries); err != nil {
			return fmt.Errorf("store %s: %w", resourceKey, err)
		}
	case entities.ResourceTopics:
		var payload *entities.TopicsPayload
		if payload, size, err = o.remote.FetchTopics(ctx, key); err != nil {
			return err
		}
		report(50)
		if err = o.topics.InsertTopics(ctx, key, *payload); err != nil {
			return fmt.Errorf("store %s: %w", resourceKey, err)
		}
	default:
		return fmt.Errorf("cannot download resource kind %q", kind)
	}
	report(90)

	err = o.metadata.Upsert(ctx, entities.ResourceMetadata{
		ResourceKey:   resourceKey,
		LastUpdatedAt: updatedAt,
		DownloadedAt:  database.FormatTime(o.now()),
		SizeBytes:     size,
	})
	if err != nil {
		return fmt.Errorf("record metadata for %s: %w", resourceKey, err)
	}
	report(100)
	log.Printf("[SYNC] Downloaded %s (%d bytes)", resourceKey, size)
	return nil
}

// Report summarises a CheckAndSyncUpdates run.
type Report struct {
	Updated []string `json:"updated"`
	Added   []string `json:"added"`
	Failed  []string `json:"failed"`
}

// CheckAndSyncUpdates re-downloads every installed resource whose manifest timestamp is
// strictly newer than the local one, then fills in the missing half (commentary or
// topics) of languages the user already has one of. Individual download failures do
// not stop the run; they are joined into the returned error.
func (o *Orchestrator) CheckAndSyncUpdates(ctx context.Context, onProgress ProgressFunc) (*Report, error) {
	manifest, err := o.remote.FetchManifest(ctx)
	if err != nil {
		return nil, err
	}
	installed, err := o.metadata.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var errs []error
	fetch := func(kind entities.ResourceKind, key, updatedAt string, into *[]string) {
		if err := o.download(ctx, kind, key, updatedAt, onProgress); err != nil {
			log.Printf("[SYNC] Failed to download %s: %v", entities.MetadataKey(kind, key), err)
			report.Failed = append(report.Failed, entities.MetadataKey(kind, key))
			errs = append(errs, err)
			return
		}
		*into = append(*into, entities.MetadataKey(kind, key))
	}

	for _, row := range installed {
		kind, key, ok := entities.SplitMetadataKey(row.ResourceKey)
		if !ok || kind == entities.ResourceUserData {
			continue
		}
		entry, ok := lookup(manifest, kind, key)
		if !ok {
			continue
		}
		if !isNewer(entry.UpdatedAt, row.LastUpdatedAt) {
			continue
		}
		fetch(kind, key, entry.UpdatedAt, &report.Updated)
	}

	for _, missing := range missingHalves(manifest, installed) {
		fetch(missing.Kind, missing.Key, missing.UpdatedAt, &report.Added)
	}

	if len(report.Updated)+len(report.Added)+len(report.Failed) == 0 {
		log.Printf("[SYNC] All %d installed resources are up to date", len(installed))
	}
	return report, errors.Join(errs...)
}

// IsSyncDue reports whether the interval has passed since the last full sync.
func (o *Orchestrator) IsSyncDue(ctx context.Context) (bool, error) {
	last, ok, err := o.settings.LastSyncAt(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return o.now().Sub(last) >= o.interval, nil
}

// AutoSyncIfDue runs a full sync when one is due. Failures are logged and recorded
// in the sync status, never returned. It reports whether a sync ran.
func (o *Orchestrator) AutoSyncIfDue(ctx context.Context) bool {
	due, err := o.IsSyncDue(ctx)
	if err != nil {
		log.Printf("[SYNC] Could not read last sync time: %v", err)
		return false
	}
	if !due {
		return false
	}
	o.RunFullSync(ctx)
	return true
}

// RunFullSync updates content and, once the user has synced their data before,
// refreshes it too. The last sync time only advances when everything succeeded.
func (o *Orchestrator) RunFullSync(ctx context.Context) {
	log.Println("[SYNC] Starting full sync")

	var problems []string
	report, err := o.CheckAndSyncUpdates(ctx, nil)
	if err != nil {
		problems = append(problems, err.Error())
	}

	if hasUserData, err := o.metadata.Exists(ctx, entities.MetadataKey(entities.ResourceUserData, "")); err != nil {
		problems = append(problems, err.Error())
	} else if hasUserData {
		if err := o.SyncUserData(ctx); err != nil {
			if errors.Is(err, remote.ErrSessionExpired) {
				log.Println("[SYNC] Session expired, skipping user data refresh")
			}
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		msg := strings.Join(problems, "; ")
		log.Printf("[SYNC] Full sync failed: %s", msg)
		if err := o.settings.SetSyncStatus(ctx, "failed", msg); err != nil {
			log.Printf("[SYNC] Failed to record sync status: %v", err)
		}
		return
	}

	summary := "up to date"
	if report != nil && len(report.Updated)+len(report.Added) > 0 {
		summary = fmt.Sprintf("%d updated, %d added", len(report.Updated), len(report.Added))
	}
	if err := o.settings.SetLastSyncAt(ctx, o.now()); err != nil {
		log.Printf("[SYNC] Failed to record last sync time: %v", err)
	}
	if err := o.settings.SetSyncStatus(ctx, "success", summary); err != nil {
		log.Printf("[SYNC] Failed to record sync status: %v", err)
	}
	log.Printf("[SYNC] Full sync completed: %s", summary)
}

// manifestEntry is the part of a manifest entry shared by every kind.
type manifestEntry struct {
	Kind      entities.ResourceKind
	Key       string
	Name      string
	Language  string
	UpdatedAt string
	SizeBytes int64
}

// entries flattens the manifest. Entries without a key are dropped.
func entries(m *remote.Manifest) []manifestEntry {
	if m == nil {
		return nil
	}
	var out []manifestEntry
	for _, v := range m.BibleVersions {
		if v.Key == "" {
			continue
		}
		out = append(out, manifestEntry{entities.ResourceBible, v.Key, v.Name, v.Language, v.UpdatedAt, v.SizeBytes})
	}
	for _, c := range m.CommentaryLanguages {
		if c.Code == "" {
			continue
		}
		out = append(out, manifestEntry{entities.ResourceCommentary, c.Code, c.Name, c.Code, c.UpdatedAt, c.SizeBytes})
	}
	for _, t := range m.TopicLanguages {
		if t.Code == "" {
			continue
		}
		out = append(out, manifestEntry{entities.ResourceTopics, t.Code, t.Name, t.Code, t.UpdatedAt, t.SizeBytes})
	}
	return out
}

func lookup(m *remote.Manifest, kind entities.ResourceKind, key string) (manifestEntry, bool) {
	for _, e := range entries(m) {
		if e.Kind == kind && e.Key == key {
			return e, true
		}
	}
	return manifestEntry{}, false
}

// isNewer reports whether remoteTS is strictly after localTS. Unparseable timestamps
// never trigger a download.
func isNewer(remoteTS, localTS string) bool {
	r, err := database.ParseTime(remoteTS)
	if err != nil {
		return false
	}
	l, err := database.ParseTime(localTS)
	if err != nil {
		return false
	}
	return r.After(l)
}

// missingHalves finds languages with commentary but no topics (or the reverse) for
// which the manifest now offers the other half.
func missingHalves(m *remote.Manifest, installed []entities.ResourceMetadata) []manifestEntry {
	have := map[entities.ResourceKind]map[string]bool{
		entities.ResourceCommentary: {},
		entities.ResourceTopics:     {},
	}
	for _, row := range installed {
		kind, key, ok := entities.SplitMetadataKey(row.ResourceKey)
		if !ok {
			continue
		}
		if langs, tracked := have[kind]; tracked {
			langs[NormalizeLanguage(key)] = true
		}
	}

	var out []manifestEntry
	queued := make(map[string]bool)
	for _, pair := range [][2]entities.ResourceKind{
		{entities.ResourceCommentary, entities.ResourceTopics},
		{entities.ResourceTopics, entities.ResourceCommentary},
	} {
		has, wants := pair[0], pair[1]
		for _, e := range entries(m) {
			lang := NormalizeLanguage(e.Key)
			if e.Kind != wants || !have[has][lang] || have[wants][lang] {
				continue
			}
			id := string(wants) + ":" + lang
			if queued[id] {
				continue
			}
			queued[id] = true
			out = append(out, e)
		}
	}
	return out
}

// NormalizeLanguage maps "en-US" and "en" to "en".
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.Index(code, "-"); i >= 0 {
		return code[:i]
	}
	return code
}
