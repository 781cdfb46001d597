package http

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/entities"
)

func TestContent_GetChapter(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	require.NoError(t, env.bible.InsertVerses(context.Background(), "NASB1995", []entities.Verse{
		{BookID: 43, ChapterNumber: 3, VerseNumber: 16, Text: "For God so loved the world."},
		{BookID: 43, ChapterNumber: 3, VerseNumber: 17, Text: "For God did not send the Son."},
	}))

	for _, path := range []string{"/api/bible/NASB1995/John/3", "/api/bible/NASB1995/43/3"} {
		t.Run(path, func(t *testing.T) {
			w := env.do(t, http.MethodGet, path, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			resp := decode[ChapterResponse](t, w)
			assert.Equal(t, "John", resp.Book)
			assert.Equal(t, 43, resp.BookID)
			require.Len(t, resp.Verses, 2)
			assert.Equal(t, 16, resp.Verses[0].VerseNumber)
		})
	}

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/bible/NASB1995/Hezekiah/1", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/bible/NASB1995/John/4", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/bible/NASB1995/John/zero", "").Code)
}

func TestContent_TopicsWithLocaleFallback(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/resources/topics/en/download", "").Code)

	topics := decode[[]entities.Topic](t, env.do(t, http.MethodGet, "/api/topics?locale=fr-CA", ""))
	require.Len(t, topics, 1)
	assert.Equal(t, "Love", topics[0].Name)

	w := env.do(t, http.MethodGet, "/api/topics/t1/explanation?locale=de", "")
	require.Equal(t, http.StatusOK, w.Code)
	exp := decode[entities.TopicExplanation](t, w)
	assert.Equal(t, "Love is patient.", exp.Explanation)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/topics/t2/explanation", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/topics/t2", "").Code)
}

func TestContent_Commentary(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/resources/commentary/en-US/download", "").Code)

	entries := decode[[]entities.CommentaryEntry](t, env.do(t, http.MethodGet, "/api/commentary/en-US/John/3?type=summary", ""))
	require.Len(t, entries, 1)
	assert.Equal(t, "Nicodemus", entries[0].Explanation)

	entries = decode[[]entities.CommentaryEntry](t, env.do(t, http.MethodGet, "/api/commentary/en-US/John/3?type=outline", ""))
	assert.Empty(t, entries)
}

func TestContent_ResolveReferences(t *testing.T) {
	env, cleanup := setupTestEnv(t)
	defer cleanup()
	require.NoError(t, env.bible.InsertVerses(context.Background(), "NASB1995", []entities.Verse{
		{BookID: 1, ChapterNumber: 1, VerseNumber: 1, Text: "In the beginning..."},
	}))

	w := env.do(t, http.MethodPost, "/api/references/resolve",
		`{"text":"See {verse:Genesis 1:1}. And {verse:Unknown 1:1}.","version":"NASB1995"}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]string](t, w)
	assert.Equal(t, "See In the beginning.... And {verse:Unknown 1:1}.", resp["text"])

	w = env.do(t, http.MethodPost, "/api/references/resolve", `{"text":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
