package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/references"
)

// VerseReader reads downloaded Bible text.
type VerseReader interface {
	GetChapter(ctx context.Context, versionKey string, bookID, chapter int) ([]entities.Verse, error)
}

// CommentaryReader reads downloaded commentary.
type CommentaryReader interface {
	GetChapterCommentaries(ctx context.Context, languageCode string, bookID, chapter int, explanationType string) ([]entities.CommentaryEntry, error)
}

// TopicReader reads downloaded topics with locale fallback.
type TopicReader interface {
	GetTopics(ctx context.Context, locale, category string) ([]entities.Topic, error)
	GetTopic(ctx context.Context, locale, topicID string) (*entities.Topic, bool, error)
	GetTopicExplanation(ctx context.Context, locale, topicID, explanationType string) (*entities.TopicExplanation, bool, error)
}

// UserDataReader reads the local mirror of the user's notes, highlights and bookmarks.
type UserDataReader interface {
	NotesForChapter(ctx context.Context, bookID, chapter int) ([]entities.Note, error)
	HighlightsForChapter(ctx context.Context, bookID, chapter int) ([]entities.Highlight, error)
	IsChapterBookmarked(ctx context.Context, bookID, chapter int) (bool, error)
}

// ReferenceResolver expands scripture placeholders in free text.
type ReferenceResolver interface {
	Resolve(ctx context.Context, text, versionKey string, opts references.Options) string
}

type ContentController struct {
	verses     VerseReader
	commentary CommentaryReader
	topics     TopicReader
	userData   UserDataReader
	resolver   ReferenceResolver
}

func NewContentController(verses VerseReader, commentary CommentaryReader, topics TopicReader, userData UserDataReader, resolver ReferenceResolver) *ContentController {
	return &ContentController{
		verses:     verses,
		commentary: commentary,
		topics:     topics,
		userData:   userData,
		resolver:   resolver,
	}
}

// ChapterResponse is one chapter of one version.
type ChapterResponse struct {
	Version string           `json:"version"`
	BookID  int              `json:"book_id"`
	Book    string           `json:"book"`
	Chapter int              `json:"chapter"`
	Verses  []entities.Verse `json:"verses"`
}

// GetChapter returns the verses of a chapter
// GET /api/bible/:version/:book/:chapter
func (cc *ContentController) GetChapter(c *gin.Context) {
	book, ok := parseBookParam(c, "book")
	if !ok {
		return
	}
	chapter, ok := parsePositiveParam(c, "chapter")
	if !ok {
		return
	}
	version := c.Param("version")

	verses, err := cc.verses.GetChapter(c.Request.Context(), version, book.ID, chapter)
	if err != nil {
		respondFailure(c, err, "get chapter")
		return
	}
	if len(verses) == 0 {
		respondNotFound(c, "chapter")
		return
	}
	c.JSON(http.StatusOK, ChapterResponse{
		Version: version,
		BookID:  book.ID,
		Book:    book.Name,
		Chapter: chapter,
		Verses:  verses,
	})
}

// GetCommentary returns the commentary of a chapter, optionally of one type
// GET /api/commentary/:language/:book/:chapter?type=
func (cc *ContentController) GetCommentary(c *gin.Context) {
	book, ok := parseBookParam(c, "book")
	if !ok {
		return
	}
	chapter, ok := parsePositiveParam(c, "chapter")
	if !ok {
		return
	}

	entries, err := cc.commentary.GetChapterCommentaries(c.Request.Context(), c.Param("language"), book.ID, chapter, c.Query("type"))
	if err != nil {
		respondFailure(c, err, "get commentary")
		return
	}
	if entries == nil {
		entries = []entities.CommentaryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// ListTopics returns the topics of a locale, falling back to related locales
// GET /api/topics?locale=&category=
func (cc *ContentController) ListTopics(c *gin.Context) {
	topics, err := cc.topics.GetTopics(c.Request.Context(), c.DefaultQuery("locale", "en"), c.Query("category"))
	if err != nil {
		respondFailure(c, err, "list topics")
		return
	}
	if topics == nil {
		topics = []entities.Topic{}
	}
	c.JSON(http.StatusOK, topics)
}

// GetTopic returns one topic
// GET /api/topics/:id?locale=
func (cc *ContentController) GetTopic(c *gin.Context) {
	topic, found, err := cc.topics.GetTopic(c.Request.Context(), c.DefaultQuery("locale", "en"), c.Param("id"))
	if err != nil {
		respondFailure(c, err, "get topic")
		return
	}
	if !found {
		respondNotFound(c, "topic")
		return
	}
	c.JSON(http.StatusOK, topic)
}

// GetTopicExplanation returns a topic explanation of the given type
// GET /api/topics/:id/explanation?locale=&type=
func (cc *ContentController) GetTopicExplanation(c *gin.Context) {
	explanation, found, err := cc.topics.GetTopicExplanation(c.Request.Context(),
		c.DefaultQuery("locale", "en"), c.Param("id"), c.DefaultQuery("type", "summary"))
	if err != nil {
		respondFailure(c, err, "get topic explanation")
		return
	}
	if !found {
		respondNotFound(c, "topic explanation")
		return
	}
	c.JSON(http.StatusOK, explanation)
}

// UserChapterResponse is the user's own content for one chapter.
type UserChapterResponse struct {
	Notes      []entities.Note      `json:"notes"`
	Highlights []entities.Highlight `json:"highlights"`
	Bookmarked bool                 `json:"bookmarked"`
}

// GetUserChapter returns the user's notes, highlights and bookmark state for a chapter
// GET /api/user/:book/:chapter
func (cc *ContentController) GetUserChapter(c *gin.Context) {
	book, ok := parseBookParam(c, "book")
	if !ok {
		return
	}
	chapter, ok := parsePositiveParam(c, "chapter")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	resp := UserChapterResponse{Notes: []entities.Note{}, Highlights: []entities.Highlight{}}
	notes, err := cc.userData.NotesForChapter(ctx, book.ID, chapter)
	if err != nil {
		respondFailure(c, err, "get notes")
		return
	}
	highlights, err := cc.userData.HighlightsForChapter(ctx, book.ID, chapter)
	if err != nil {
		respondFailure(c, err, "get highlights")
		return
	}
	bookmarked, err := cc.userData.IsChapterBookmarked(ctx, book.ID, chapter)
	if err != nil {
		respondFailure(c, err, "get bookmark")
		return
	}
	if notes != nil {
		resp.Notes = notes
	}
	if highlights != nil {
		resp.Highlights = highlights
	}
	resp.Bookmarked = bookmarked
	c.JSON(http.StatusOK, resp)
}

type resolveRequest struct {
	Text                string `json:"text" binding:"required"`
	Version             string `json:"version" binding:"required"`
	IncludeVerseNumbers bool   `json:"include_verse_numbers"`
	IncludeReference    bool   `json:"include_reference"`
}

// ResolveReferences expands {verse:...} and {chapter:...} placeholders
// POST /api/references/resolve
func (cc *ContentController) ResolveReferences(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "text and version are required")
		return
	}
	text := cc.resolver.Resolve(c.Request.Context(), req.Text, req.Version, references.Options{
		IncludeVerseNumbers: req.IncludeVerseNumbers,
		IncludeReference:    req.IncludeReference,
	})
	c.JSON(http.StatusOK, gin.H{"text": text})
}
