package references

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/bible"
	"github.com/versemate/offlinestore/internal/entities"
)

const version = "NASB1995"

func setupTestResolver(t *testing.T) (*Resolver, func()) {
	engine := database.NewEngine(filepath.Join(t.TempDir(), "refs.db"))
	repo := bible.NewRepository(engine)

	verses := []entities.Verse{
		{BookID: 1, ChapterNumber: 1, VerseNumber: 1, Text: "In the beginning..."},
		{BookID: 1, ChapterNumber: 1, VerseNumber: 2, Text: "The earth was formless."},
		{BookID: 1, ChapterNumber: 2, VerseNumber: 1, Text: "Thus the heavens were completed."},
		{BookID: 19, ChapterNumber: 23, VerseNumber: 1, Text: "The LORD is my shepherd."},
		{BookID: 43, ChapterNumber: 3, VerseNumber: 16, Text: "For God so loved the world."},
		{BookID: 43, ChapterNumber: 3, VerseNumber: 17, Text: "For God did not send the Son."},
	}
	require.NoError(t, repo.InsertVerses(context.Background(), version, verses))

	cleanup := func() {
		engine.Close()
	}
	return NewResolver(repo), cleanup
}

func TestResolve_SingleVerse(t *testing.T) {
	r, cleanup := setupTestResolver(t)
	defer cleanup()

	out := r.Resolve(context.Background(), "See {verse:Genesis 1:1}.", version, Options{})
	assert.Equal(t, "See In the beginning....", out)
}

func TestResolve_UnresolvableLeftVerbatim(t *testing.T) {
	r, cleanup := setupTestResolver(t)
	defer cleanup()
	ctx := context.Background()

	tests := []string{
		"{verse:Unknown 1:1}",
		"{verse:John 9:1}",
		"{verse:John 3}",
		"{chapter:Exodus 1}",
		"{chapter:Genesis 60}",
		"{verse:Genesis 1:3-2}",
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, in, r.Resolve(ctx, in, version, Options{IncludeReference: true}))
		})
	}
}

func TestResolve_RangeWithVerseNumbers(t *testing.T) {
	r, cleanup := setupTestResolver(t)
	defer cleanup()

	out := r.Resolve(context.Background(), "{verse:John 3:16-17}", version, Options{IncludeVerseNumbers: true})
	assert.Equal(t, "16 For God so loved the world. 17 For God did not send the Son.", out)
}

func TestResolve_AliasWithCitation(t *testing.T) {
	r, cleanup := setupTestResolver(t)
	defer cleanup()

	out := r.Resolve(context.Background(), "{verse:Psalm 23:1}", version, Options{IncludeReference: true})
	assert.Equal(t, "The LORD is my shepherd. (Psalms 23:1)", out)
}

func TestResolve_ChapterRangeAddsSubheadings(t *testing.T) {
	r, cleanup := setupTestResolver(t)
	defer cleanup()
	ctx := context.Background()

	out := r.Resolve(ctx, "{chapter:Genesis 1-2}", version, Options{})
	assert.Equal(t, "### Genesis 1\n\nIn the beginning... The earth was formless.\n\n"+
		"### Genesis 2\n\nThus the heavens were completed.", out)

	single := r.Resolve(ctx, "{chapter:Gen 2}", version, Options{})
	assert.Equal(t, "{chapter:Gen 2}", single, "abbreviations are not aliases")

	single = r.Resolve(ctx, "{chapter:Genesis 2}", version, Options{})
	assert.Equal(t, "Thus the heavens were completed.", single)
}

func TestResolve_CitationsGroupedUnderHeader(t *testing.T) {
	r, cleanup := setupTestResolver(t)
	defer cleanup()

	in := "# Creation\nRead {verse:Genesis 1:1} and {verse:John 3:16}.\n## Later\nNothing {verse:Unknown 1:1}."
	out := r.Resolve(context.Background(), in, version, Options{IncludeReference: true})

	assert.Equal(t, "# Creation\n\n*(Genesis 1:1; John 3:16)*\n"+
		"Read In the beginning... (Genesis 1:1) and For God so loved the world. (John 3:16).\n"+
		"## Later\nNothing {verse:Unknown 1:1}.", out)
}

func TestResolve_NoPlaceholders(t *testing.T) {
	r, cleanup := setupTestResolver(t)
	defer cleanup()

	in := "# Title\nplain {text}"
	assert.Equal(t, in, r.Resolve(context.Background(), in, version, Options{IncludeReference: true}))
}
