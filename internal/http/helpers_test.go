package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/outbox"
	"github.com/versemate/offlinestore/internal/remote"
	"github.com/versemate/offlinestore/internal/syncer"
)

func TestParsePositiveParam(t *testing.T) {
	tests := []struct {
		value string
		want  int
		ok    bool
	}{
		{"3", 3, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "chapter", Value: tt.value}}

			got, ok := parsePositiveParam(c, "chapter")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			if !tt.ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), "invalid chapter")
			}
		})
	}
}

func TestParseBookParam(t *testing.T) {
	tests := []struct {
		value string
		want  string
		ok    bool
	}{
		{"Genesis", "Genesis", true},
		{"psalm", "Psalms", true},
		{"1 John", "1 John", true},
		{"62", "1 John", true},
		{"67", "", false},
		{"Hezekiah", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "book", Value: tt.value}}

			book, ok := parseBookParam(c, "book")
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, book.Name)
			if !tt.ok {
				assert.Equal(t, http.StatusNotFound, w.Code)
			}
		})
	}
}

func TestParseResourceParams(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "kind", Value: "commentary"}, {Key: "key", Value: "en-US"}}

	kind, key, ok := parseResourceParams(c)
	assert.True(t, ok)
	assert.Equal(t, entities.ResourceCommentary, kind)
	assert.Equal(t, "en-US", key)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "kind", Value: "user-data"}, {Key: "key", Value: "x"}}
	_, _, ok = parseResourceParams(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRespondFailure_Classification(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"storage", fmt.Errorf("open: %w", database.ErrPermanentlyFailed), http.StatusServiceUnavailable, CodeStorageUnavailable},
		{"session", fmt.Errorf("fetch: %w", remote.ErrSessionExpired), http.StatusUnauthorized, CodeSessionExpired},
		{"upstream", &remote.StatusError{Method: "GET", Path: "/offline/manifest", StatusCode: 500}, http.StatusBadGateway, CodeSyncFailed},
		{"not offered", fmt.Errorf("%w: bible:KJV", syncer.ErrNotOffered), http.StatusNotFound, ""},
		{"invalid action", fmt.Errorf("%w: x", outbox.ErrInvalidAction), http.StatusBadRequest, ""},
		{"other", errors.New("disk full"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondFailure(c, tt.err, "test")

			assert.Equal(t, tt.status, w.Code)
			resp := decode[ErrorResponse](t, w)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestRespondFailure_StorageUnavailableFromFirstAttempt(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	engine := database.NewEngine(filepath.Join(blocker, "offline.db"))
	defer engine.Close()

	for attempt := 1; attempt <= 2; attempt++ {
		_, err := engine.Initialize(context.Background())
		require.Error(t, err)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondFailure(c, err, "open storage")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code, "attempt %d", attempt)
		assert.Equal(t, CodeStorageUnavailable, decode[ErrorResponse](t, w).Code, "attempt %d", attempt)
	}
}
