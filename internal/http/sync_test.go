package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/outbox"
	"github.com/versemate/offlinestore/internal/syncer"
)

func TestOutbox_EnqueueMirrorAndDrain(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	w := env.do(t, http.MethodPost, "/api/outbox",
		`{"type":"NOTE","action":"CREATE","payload":{"book_id":43,"chapter_number":3,"content":"born again"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	row := decode[entities.PendingSyncAction](t, w)
	assert.Equal(t, entities.SyncActionPending, row.Status)

	chapter := decode[UserChapterResponse](t, env.do(t, http.MethodGet, "/api/user/John/3", ""))
	require.Len(t, chapter.Notes, 1)
	assert.Equal(t, "born again", chapter.Notes[0].Content)

	pending := decode[[]entities.PendingSyncAction](t, env.do(t, http.MethodGet, "/api/outbox", ""))
	assert.Len(t, pending, 1)

	w = env.do(t, http.MethodPost, "/api/outbox/drain", "")
	require.Equal(t, http.StatusOK, w.Code)
	drained := decode[struct {
		Result outbox.Result `json:"result"`
	}](t, w)
	assert.Equal(t, outbox.Result{Attempted: 1, Succeeded: 1}, drained.Result)
	assert.Equal(t, []string{"POST /bible/book/chapter/note"}, env.requester.paths)

	pending = decode[[]entities.PendingSyncAction](t, env.do(t, http.MethodGet, "/api/outbox", ""))
	assert.Empty(t, pending)
}

func TestOutbox_DrainReportsPendingChanges(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	env.requester.fail = true

	w := env.do(t, http.MethodPost, "/api/outbox", `{"type":"HIGHLIGHT","action":"DELETE","payload":{"highlight_id":9}}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/outbox/drain", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), CodeChangesPending)
}

func TestOutbox_EnqueueRejectsBadActions(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	tests := []struct {
		name string
		body string
	}{
		{"missing payload", `{"type":"NOTE","action":"CREATE"}`},
		{"unknown type", `{"type":"VERSE","action":"CREATE","payload":{}}`},
		{"unidentified delete", `{"type":"BOOKMARK","action":"DELETE","payload":{}}`},
		{"malformed payload", `{"type":"NOTE","action":"UPDATE","payload":{"note_id":7}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/outbox", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	pending := decode[[]entities.PendingSyncAction](t, env.do(t, http.MethodGet, "/api/outbox", ""))
	assert.Empty(t, pending)
}

func TestSync_StatusAndUpdates(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	status := decode[SyncStatusResponse](t, env.do(t, http.MethodGet, "/api/sync/status", ""))
	assert.True(t, status.Due)
	assert.Nil(t, status.LastSyncAt)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/resources/bible/NASB1995/download", "").Code)

	w := env.do(t, http.MethodPost, "/api/sync/updates", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[syncer.Report](t, w)
	assert.Empty(t, report.Failed)

	w = env.do(t, http.MethodPost, "/api/sync/full", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	status = decode[SyncStatusResponse](t, env.do(t, http.MethodGet, "/api/sync/status", ""))
	assert.False(t, status.Due)
	require.NotNil(t, status.LastSyncAt)
	assert.Equal(t, "success", status.Status)
}
