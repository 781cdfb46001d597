package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/bible"
	"github.com/versemate/offlinestore/internal/database/commentary"
	"github.com/versemate/offlinestore/internal/database/metadata"
	"github.com/versemate/offlinestore/internal/database/progress"
	"github.com/versemate/offlinestore/internal/database/settings"
	"github.com/versemate/offlinestore/internal/database/syncqueue"
	"github.com/versemate/offlinestore/internal/database/topics"
	"github.com/versemate/offlinestore/internal/database/userdata"
	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/outbox"
	"github.com/versemate/offlinestore/internal/references"
	"github.com/versemate/offlinestore/internal/remote"
	"github.com/versemate/offlinestore/internal/syncer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeRemote serves a small fixed catalog.
type fakeRemote struct {
	mu       sync.Mutex
	manifest remote.Manifest
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{manifest: remote.Manifest{
		BibleVersions: []remote.BibleVersion{
			{Key: "NASB1995", Name: "New American Standard Bible", Language: "en", UpdatedAt: "2024-05-01T00:00:00Z", SizeBytes: 10},
		},
		CommentaryLanguages: []remote.LanguageResource{{Code: "en-US", Name: "English", UpdatedAt: "2024-05-01T00:00:00Z"}},
		TopicLanguages:      []remote.LanguageResource{{Code: "en", Name: "English", UpdatedAt: "2024-05-01T00:00:00Z"}},
	}}
}

func (f *fakeRemote) FetchManifest(ctx context.Context) (*remote.Manifest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := f.manifest
	return &m, nil
}

func (f *fakeRemote) FetchBible(ctx context.Context, versionKey string) ([]entities.Verse, int64, error) {
	return []entities.Verse{
		{BookID: 1, ChapterNumber: 1, VerseNumber: 1, Text: "In the beginning..."},
		{BookID: 43, ChapterNumber: 3, VerseNumber: 16, Text: "For God so loved the world."},
	}, 64, nil
}

func (f *fakeRemote) FetchCommentaries(ctx context.Context, languageCode string) ([]entities.CommentaryEntry, int64, error) {
	return []entities.CommentaryEntry{
		{ExplanationID: 1, BookID: 43, ChapterNumber: 3, Type: "summary", Explanation: "Nicodemus"},
	}, 32, nil
}

func (f *fakeRemote) FetchTopics(ctx context.Context, languageCode string) (*entities.TopicsPayload, int64, error) {
	return &entities.TopicsPayload{
		Topics:       []entities.Topic{{TopicID: "t1", Name: "Love", Category: "virtues"}},
		Explanations: []entities.TopicExplanation{{TopicID: "t1", Type: "summary", Explanation: "Love is patient."}},
	}, 16, nil
}

func (f *fakeRemote) FetchUserData(ctx context.Context) (*entities.UserData, int64, error) {
	return &entities.UserData{}, 2, nil
}

// recordingRequester accepts every mutation.
type recordingRequester struct {
	mu    sync.Mutex
	paths []string
	fail  bool
}

func (r *recordingRequester) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, method+" "+path)
	if r.fail {
		return &remote.StatusError{Method: method, Path: path, StatusCode: http.StatusInternalServerError}
	}
	return nil
}

type testEnv struct {
	engine    *database.Engine
	router    *gin.Engine
	remote    *fakeRemote
	requester *recordingRequester
	settings  *settings.Repository
	bible     *bible.Repository
}

func setupTestEnv(t *testing.T) (*testEnv, func()) {
	t.Helper()

	engine := database.NewEngine(filepath.Join(t.TempDir(), "api.db"))
	_, err := engine.Initialize(context.Background())
	require.NoError(t, err)

	fake := newFakeRemote()
	requester := &recordingRequester{}
	orchestrator := syncer.New(engine, fake, syncer.WithClock(func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
	bibleRepo := bible.NewRepository(engine)
	settingsRepo := settings.NewRepository(engine)

	router := NewRouter(RouterConfig{
		Storage:     engine,
		SyncState:   settingsRepo,
		OutboxCount: syncqueue.NewRepository(engine),
		Syncer:      orchestrator,
		Installed:   metadata.NewRepository(engine),
		Progress:    progress.NewRepository(engine),
		Verses:      bibleRepo,
		Commentary:  commentary.NewRepository(engine),
		Topics:      topics.NewRepository(engine),
		UserData:    userdata.NewRepository(engine),
		Resolver:    references.NewResolver(bibleRepo),
		Outbox:      outbox.NewProcessor(engine, requester, nil),
		Version:     "1.0.0",
	})

	env := &testEnv{
		engine:    engine,
		router:    router,
		remote:    fake,
		requester: requester,
		settings:  settingsRepo,
		bible:     bibleRepo,
	}
	cleanup := func() {
		engine.Close()
	}
	return env, cleanup
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
