package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
)

var (
	// ErrUnknownAction is returned for a queued (type, action) pair with no variant.
	ErrUnknownAction = errors.New("unknown outbox action")

	// ErrInvalidAction is returned by Enqueue for an action that could never be replayed.
	ErrInvalidAction = errors.New("invalid outbox action")
)

// Action is one user mutation. Each (entity type, action kind) pair has its own
// variant with a typed payload.
type Action interface {
	EntityType() entities.SyncEntityType
	Kind() entities.SyncActionKind
	request() request
	mirror(ctx context.Context, m Mirror, now time.Time) error
}

// request is the HTTP call that replays an action.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

// Mirror is the local copy of user data that queued actions are applied to right away.
type Mirror interface {
	UpsertNote(ctx context.Context, note entities.Note) error
	UpdateNoteContent(ctx context.Context, noteID, content, updatedAt string) error
	DeleteNote(ctx context.Context, noteID string) error
	UpdateHighlightColor(ctx context.Context, highlightID int64, color, updatedAt string) error
	DeleteHighlight(ctx context.Context, highlightID int64) error
	DeleteBookmark(ctx context.Context, favoriteID int64) error
	DeleteChapterBookmarks(ctx context.Context, bookID, chapter int) error
}

const (
	notePath      = "/bible/book/chapter/note"
	highlightPath = "/bible/highlight"
	bookmarkPath  = "/bible/book/chapter/save"
)

// NoteCreate adds a note. TempID identifies the note locally until the server
// assigns its id; it is generated on enqueue when empty.
type NoteCreate struct {
	TempID        string `json:"temp_id"`
	BookID        int    `json:"book_id"`
	ChapterNumber int    `json:"chapter_number"`
	VerseNumber   *int   `json:"verse_number,omitempty"`
	Content       string `json:"content"`
}

func (NoteCreate) EntityType() entities.SyncEntityType { return entities.SyncEntityNote }
func (NoteCreate) Kind() entities.SyncActionKind       { return entities.SyncActionCreate }

func (a NoteCreate) request() request {
	return request{method: http.MethodPost, path: notePath, body: struct {
		BookID        int    `json:"book_id"`
		ChapterNumber int    `json:"chapter_number"`
		VerseNumber   *int   `json:"verse_number,omitempty"`
		Content       string `json:"content"`
	}{a.BookID, a.ChapterNumber, a.VerseNumber, a.Content}}
}

func (a NoteCreate) mirror(ctx context.Context, m Mirror, now time.Time) error {
	return m.UpsertNote(ctx, entities.Note{
		NoteID:        a.TempID,
		BookID:        a.BookID,
		ChapterNumber: a.ChapterNumber,
		VerseNumber:   a.VerseNumber,
		Content:       a.Content,
		UpdatedAt:     database.FormatTime(now),
	})
}

type NoteUpdate struct {
	NoteID  string `json:"note_id"`
	Content string `json:"content"`
}

func (NoteUpdate) EntityType() entities.SyncEntityType { return entities.SyncEntityNote }
func (NoteUpdate) Kind() entities.SyncActionKind       { return entities.SyncActionUpdate }

func (a NoteUpdate) request() request {
	return request{method: http.MethodPut, path: notePath + "/" + url.PathEscape(a.NoteID), body: struct {
		Content string `json:"content"`
	}{a.Content}}
}

func (a NoteUpdate) mirror(ctx context.Context, m Mirror, now time.Time) error {
	return m.UpdateNoteContent(ctx, a.NoteID, a.Content, database.FormatTime(now))
}

type NoteDelete struct {
	NoteID string `json:"note_id"`
}

func (NoteDelete) EntityType() entities.SyncEntityType { return entities.SyncEntityNote }
func (NoteDelete) Kind() entities.SyncActionKind       { return entities.SyncActionDelete }

func (a NoteDelete) request() request {
	return request{method: http.MethodDelete, path: notePath + "/" + url.PathEscape(a.NoteID)}
}

func (a NoteDelete) mirror(ctx context.Context, m Mirror, _ time.Time) error {
	return m.DeleteNote(ctx, a.NoteID)
}

// HighlightCreate has no local id; it appears in the mirror after the refresh.
type HighlightCreate struct {
	BookID        int    `json:"book_id"`
	ChapterNumber int    `json:"chapter_number"`
	StartVerse    int    `json:"start_verse"`
	EndVerse      int    `json:"end_verse"`
	Color         string `json:"color"`
	StartChar     *int   `json:"start_char,omitempty"`
	EndChar       *int   `json:"end_char,omitempty"`
}

func (HighlightCreate) EntityType() entities.SyncEntityType { return entities.SyncEntityHighlight }
func (HighlightCreate) Kind() entities.SyncActionKind       { return entities.SyncActionCreate }

func (a HighlightCreate) request() request {
	return request{method: http.MethodPost, path: highlightPath, body: a}
}

func (HighlightCreate) mirror(context.Context, Mirror, time.Time) error { return nil }

// HighlightUpdate carries the id in the path; the body holds only the changed fields.
type HighlightUpdate struct {
	HighlightID int64  `json:"highlight_id"`
	Color       string `json:"color"`
	StartVerse  *int   `json:"start_verse,omitempty"`
	EndVerse    *int   `json:"end_verse,omitempty"`
}

func (HighlightUpdate) EntityType() entities.SyncEntityType { return entities.SyncEntityHighlight }
func (HighlightUpdate) Kind() entities.SyncActionKind       { return entities.SyncActionUpdate }

func (a HighlightUpdate) request() request {
	return request{
		method: http.MethodPut,
		path:   highlightPath + "/" + strconv.FormatInt(a.HighlightID, 10),
		body: struct {
			Color      string `json:"color"`
			StartVerse *int   `json:"start_verse,omitempty"`
			EndVerse   *int   `json:"end_verse,omitempty"`
		}{a.Color, a.StartVerse, a.EndVerse},
	}
}

func (a HighlightUpdate) mirror(ctx context.Context, m Mirror, now time.Time) error {
	return m.UpdateHighlightColor(ctx, a.HighlightID, a.Color, database.FormatTime(now))
}

type HighlightDelete struct {
	HighlightID int64 `json:"highlight_id"`
}

func (HighlightDelete) EntityType() entities.SyncEntityType { return entities.SyncEntityHighlight }
func (HighlightDelete) Kind() entities.SyncActionKind       { return entities.SyncActionDelete }

func (a HighlightDelete) request() request {
	return request{method: http.MethodDelete, path: highlightPath + "/" + strconv.FormatInt(a.HighlightID, 10)}
}

func (a HighlightDelete) mirror(ctx context.Context, m Mirror, _ time.Time) error {
	return m.DeleteHighlight(ctx, a.HighlightID)
}

type BookmarkCreate struct {
	BookID        int `json:"book_id"`
	ChapterNumber int `json:"chapter_number"`
}

func (BookmarkCreate) EntityType() entities.SyncEntityType { return entities.SyncEntityBookmark }
func (BookmarkCreate) Kind() entities.SyncActionKind       { return entities.SyncActionCreate }

func (a BookmarkCreate) request() request {
	return request{method: http.MethodPost, path: bookmarkPath, body: a}
}

func (BookmarkCreate) mirror(context.Context, Mirror, time.Time) error { return nil }

type BookmarkUpdate struct {
	FavoriteID    int64 `json:"favorite_id"`
	BookID        int   `json:"book_id"`
	ChapterNumber int   `json:"chapter_number"`
}

func (BookmarkUpdate) EntityType() entities.SyncEntityType { return entities.SyncEntityBookmark }
func (BookmarkUpdate) Kind() entities.SyncActionKind       { return entities.SyncActionUpdate }

func (a BookmarkUpdate) request() request {
	return request{
		method: http.MethodPut,
		path:   bookmarkPath + "/" + strconv.FormatInt(a.FavoriteID, 10),
		body: struct {
			BookID        int `json:"book_id"`
			ChapterNumber int `json:"chapter_number"`
		}{a.BookID, a.ChapterNumber},
	}
}

func (BookmarkUpdate) mirror(context.Context, Mirror, time.Time) error { return nil }

// BookmarkDelete removes a bookmark either by FavoriteID or by the composite
// user/book/chapter/type key. Only the fields that are set go into the query.
type BookmarkDelete struct {
	FavoriteID    *int64 `json:"favorite_id,omitempty"`
	UserID        *int64 `json:"user_id,omitempty"`
	BookID        *int   `json:"book_id,omitempty"`
	ChapterNumber *int   `json:"chapter_number,omitempty"`
	Type          string `json:"type,omitempty"`
}

func (BookmarkDelete) EntityType() entities.SyncEntityType { return entities.SyncEntityBookmark }
func (BookmarkDelete) Kind() entities.SyncActionKind       { return entities.SyncActionDelete }

func (a BookmarkDelete) request() request {
	q := url.Values{}
	if a.FavoriteID != nil {
		q.Set("favorite_id", strconv.FormatInt(*a.FavoriteID, 10))
	}
	if a.UserID != nil {
		q.Set("user_id", strconv.FormatInt(*a.UserID, 10))
	}
	if a.BookID != nil {
		q.Set("book_id", strconv.Itoa(*a.BookID))
	}
	if a.ChapterNumber != nil {
		q.Set("chapter_number", strconv.Itoa(*a.ChapterNumber))
	}
	if a.Type != "" {
		q.Set("type", a.Type)
	}
	return request{method: http.MethodDelete, path: bookmarkPath, query: q}
}

func (a BookmarkDelete) mirror(ctx context.Context, m Mirror, _ time.Time) error {
	if a.FavoriteID != nil {
		return m.DeleteBookmark(ctx, *a.FavoriteID)
	}
	if a.BookID != nil && a.ChapterNumber != nil {
		return m.DeleteChapterBookmarks(ctx, *a.BookID, *a.ChapterNumber)
	}
	return nil
}

// validate rejects actions that cannot be replayed.
func validate(a Action) error {
	switch v := a.(type) {
	case NoteUpdate:
		if v.NoteID == "" {
			return fmt.Errorf("%w: note update without note_id", ErrInvalidAction)
		}
	case NoteDelete:
		if v.NoteID == "" {
			return fmt.Errorf("%w: note delete without note_id", ErrInvalidAction)
		}
	case HighlightUpdate:
		if v.HighlightID == 0 {
			return fmt.Errorf("%w: highlight update without highlight_id", ErrInvalidAction)
		}
	case HighlightDelete:
		if v.HighlightID == 0 {
			return fmt.Errorf("%w: highlight delete without highlight_id", ErrInvalidAction)
		}
	case BookmarkUpdate:
		if v.FavoriteID == 0 {
			return fmt.Errorf("%w: bookmark update without favorite_id", ErrInvalidAction)
		}
	case BookmarkDelete:
		if len(v.request().query) == 0 {
			return fmt.Errorf("%w: bookmark delete without any identifying field", ErrInvalidAction)
		}
	}
	return nil
}

// withTempID gives a NoteCreate a local id if it has none.
func withTempID(a Action) Action {
	if nc, ok := a.(NoteCreate); ok && nc.TempID == "" {
		nc.TempID = "local-" + uuid.NewString()
		return nc
	}
	return a
}

// Encode serializes an action's payload for the queue.
func Encode(a Action) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type actionKey struct {
	entityType entities.SyncEntityType
	kind       entities.SyncActionKind
}

var decoders = map[actionKey]func(payload string) (Action, error){
	{entities.SyncEntityNote, entities.SyncActionCreate}:      decodeAs[NoteCreate],
	{entities.SyncEntityNote, entities.SyncActionUpdate}:      decodeAs[NoteUpdate],
	{entities.SyncEntityNote, entities.SyncActionDelete}:      decodeAs[NoteDelete],
	{entities.SyncEntityHighlight, entities.SyncActionCreate}: decodeAs[HighlightCreate],
	{entities.SyncEntityHighlight, entities.SyncActionUpdate}: decodeAs[HighlightUpdate],
	{entities.SyncEntityHighlight, entities.SyncActionDelete}: decodeAs[HighlightDelete],
	{entities.SyncEntityBookmark, entities.SyncActionCreate}:  decodeAs[BookmarkCreate],
	{entities.SyncEntityBookmark, entities.SyncActionUpdate}:  decodeAs[BookmarkUpdate],
	{entities.SyncEntityBookmark, entities.SyncActionDelete}:  decodeAs[BookmarkDelete],
}

// Decode rebuilds the typed action of a queued row.
func Decode(row entities.PendingSyncAction) (Action, error) {
	decode, ok := decoders[actionKey{row.Type, row.Action}]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownAction, row.Type, row.Action)
	}
	a, err := decode(row.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s payload: %w", row.Type, row.Action, err)
	}
	return a, nil
}

func decodeAs[T Action](payload string) (Action, error) {
	var v T
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, err
	}
	return v, nil
}
