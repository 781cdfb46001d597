// Package references replaces inline scripture placeholders in free text with the
// verse text stored offline.
//
// Two placeholder forms are recognized:
//
//	{verse:John 3:16}       {verse:John 3:16-18}
//	{chapter:Psalm 23}      {chapter:Genesis 1-2}
//
// Resolution is best effort. A placeholder whose book is unknown or whose verses are
// not downloaded is left in the output unchanged.
package references

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/versemate/offlinestore/internal/catalog"
	"github.com/versemate/offlinestore/internal/entities"
)

// maxVerseSpan bounds a single verse range so a typo cannot pull a whole book.
const maxVerseSpan = 200

var (
	placeholderRe = regexp.MustCompile(`\{(verse|chapter):([^{}\n]+)\}`)
	verseRefRe    = regexp.MustCompile(`^\s*(.+?)\s+(\d+)\s*:\s*(\d+)(?:\s*-\s*(\d+))?\s*$`)
	chapterRefRe  = regexp.MustCompile(`^\s*(.+?)\s+(\d+)(?:\s*-\s*(\d+))?\s*$`)
	headerRe      = regexp.MustCompile(`(?m)^#{1,6}[ \t].*$`)
)

// VerseSource is the read side of the Bible store.
type VerseSource interface {
	GetSpecificVerses(ctx context.Context, versionKey, bookName string, chapter int, verseNumbers []int) ([]entities.Verse, error)
	GetChapter(ctx context.Context, versionKey string, bookID, chapter int) ([]entities.Verse, error)
}

type Options struct {
	// IncludeVerseNumbers prefixes every verse with its number.
	IncludeVerseNumbers bool
	// IncludeReference appends a citation to every resolved placeholder and lists the
	// citations under the section header the placeholders belong to.
	IncludeReference bool
}

type Resolver struct {
	verses VerseSource
}

func NewResolver(verses VerseSource) *Resolver {
	return &Resolver{verses: verses}
}

type edit struct {
	start, end int
	text       string
}

// Resolve returns text with every resolvable placeholder replaced.
func (r *Resolver) Resolve(ctx context.Context, text, versionKey string, opts Options) string {
	matches := placeholderRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	headers := headerRe.FindAllStringIndex(text, -1)
	citationsByHeader := make(map[int][]string)
	var edits []edit

	for _, m := range matches {
		kind := text[m[2]:m[3]]
		body := text[m[4]:m[5]]

		var resolved, citation string
		var ok bool
		switch kind {
		case "verse":
			resolved, citation, ok = r.resolveVerses(ctx, body, versionKey, opts)
		case "chapter":
			resolved, citation, ok = r.resolveChapters(ctx, body, versionKey, opts)
		}
		if !ok {
			continue
		}
		if opts.IncludeReference {
			resolved += " (" + citation + ")"
			if h := precedingHeader(headers, m[0]); h >= 0 {
				citationsByHeader[h] = append(citationsByHeader[h], citation)
			}
		}
		edits = append(edits, edit{start: m[0], end: m[1], text: resolved})
	}

	for h, citations := range citationsByHeader {
		at := headers[h][1]
		edits = append(edits, edit{start: at, end: at, text: "\n\n*(" + strings.Join(citations, "; ") + ")*"})
	}
	return apply(text, edits)
}

func (r *Resolver) resolveVerses(ctx context.Context, body, versionKey string, opts Options) (string, string, bool) {
	parts := verseRefRe.FindStringSubmatch(body)
	if parts == nil {
		return "", "", false
	}
	book, found := catalog.Lookup(parts[1])
	if !found {
		return "", "", false
	}
	chapter, _ := strconv.Atoi(parts[2])
	start, _ := strconv.Atoi(parts[3])
	end := start
	if parts[4] != "" {
		end, _ = strconv.Atoi(parts[4])
	}
	if start < 1 || end < start || end-start >= maxVerseSpan {
		return "", "", false
	}

	numbers := make([]int, 0, end-start+1)
	for v := start; v <= end; v++ {
		numbers = append(numbers, v)
	}
	verses, err := r.verses.GetSpecificVerses(ctx, versionKey, book.Name, chapter, numbers)
	if err != nil {
		log.Printf("[REFS] Failed to load %s: %v", body, err)
		return "", "", false
	}
	if len(verses) == 0 {
		return "", "", false
	}

	citation := fmt.Sprintf("%s %d:%d", book.Name, chapter, start)
	if end > start {
		citation += fmt.Sprintf("-%d", end)
	}
	return joinVerses(verses, opts.IncludeVerseNumbers), citation, true
}

func (r *Resolver) resolveChapters(ctx context.Context, body, versionKey string, opts Options) (string, string, bool) {
	parts := chapterRefRe.FindStringSubmatch(body)
	if parts == nil {
		return "", "", false
	}
	book, found := catalog.Lookup(parts[1])
	if !found {
		return "", "", false
	}
	start, _ := strconv.Atoi(parts[2])
	end := start
	if parts[3] != "" {
		end, _ = strconv.Atoi(parts[3])
	}
	if start < 1 || end < start || end > book.Chapters {
		return "", "", false
	}

	var sections []string
	for ch := start; ch <= end; ch++ {
		verses, err := r.verses.GetChapter(ctx, versionKey, book.ID, ch)
		if err != nil {
			log.Printf("[REFS] Failed to load %s %d: %v", book.Name, ch, err)
			return "", "", false
		}
		if len(verses) == 0 {
			continue
		}
		text := joinVerses(verses, opts.IncludeVerseNumbers)
		if end > start {
			text = fmt.Sprintf("### %s %d\n\n%s", book.Name, ch, text)
		}
		sections = append(sections, text)
	}
	if len(sections) == 0 {
		return "", "", false
	}

	citation := fmt.Sprintf("%s %d", book.Name, start)
	if end > start {
		citation += fmt.Sprintf("-%d", end)
	}
	return strings.Join(sections, "\n\n"), citation, true
}

func joinVerses(verses []entities.Verse, withNumbers bool) string {
	texts := make([]string, 0, len(verses))
	for _, v := range verses {
		t := strings.TrimSpace(v.Text)
		if withNumbers {
			t = strconv.Itoa(v.VerseNumber) + " " + t
		}
		texts = append(texts, t)
	}
	return strings.Join(texts, " ")
}

// precedingHeader returns the index of the last header starting before pos, or -1.
func precedingHeader(headers [][]int, pos int) int {
	i := sort.Search(len(headers), func(i int) bool { return headers[i][0] >= pos })
	return i - 1
}

func apply(text string, edits []edit) string {
	if len(edits) == 0 {
		return text
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, e := range edits {
		b.WriteString(text[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.WriteString(text[pos:])
	return b.String()
}
