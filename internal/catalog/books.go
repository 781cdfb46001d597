// Package catalog holds the static canonical list of the 66 books and the name
// variants readers and authors use for them.
package catalog

import (
	"strings"
)

// Book is one entry of the canonical catalog.
type Book struct {
	ID       int
	Name     string
	Chapters int
}

var books = []Book{
	{1, "Genesis", 50}, {2, "Exodus", 40}, {3, "Leviticus", 27}, {4, "Numbers", 36},
	{5, "Deuteronomy", 34}, {6, "Joshua", 24}, {7, "Judges", 21}, {8, "Ruth", 4},
	{9, "1 Samuel", 31}, {10, "2 Samuel", 24}, {11, "1 Kings", 22}, {12, "2 Kings", 25},
	{13, "1 Chronicles", 29}, {14, "2 Chronicles", 36}, {15, "Ezra", 10}, {16, "Nehemiah", 13},
	{17, "Esther", 10}, {18, "Job", 42}, {19, "Psalms", 150}, {20, "Proverbs", 31},
	{21, "Ecclesiastes", 12}, {22, "Song of Solomon", 8}, {23, "Isaiah", 66}, {24, "Jeremiah", 52},
	{25, "Lamentations", 5}, {26, "Ezekiel", 48}, {27, "Daniel", 12}, {28, "Hosea", 14},
	{29, "Joel", 3}, {30, "Amos", 9}, {31, "Obadiah", 1}, {32, "Jonah", 4},
	{33, "Micah", 7}, {34, "Nahum", 3}, {35, "Habakkuk", 3}, {36, "Zephaniah", 3},
	{37, "Haggai", 2}, {38, "Zechariah", 14}, {39, "Malachi", 4}, {40, "Matthew", 28},
	{41, "Mark", 16}, {42, "Luke", 24}, {43, "John", 21}, {44, "Acts", 28},
	{45, "Romans", 16}, {46, "1 Corinthians", 16}, {47, "2 Corinthians", 13}, {48, "Galatians", 6},
	{49, "Ephesians", 6}, {50, "Philippians", 4}, {51, "Colossians", 4}, {52, "1 Thessalonians", 5},
	{53, "2 Thessalonians", 3}, {54, "1 Timothy", 6}, {55, "2 Timothy", 4}, {56, "Titus", 3},
	{57, "Philemon", 1}, {58, "Hebrews", 13}, {59, "James", 5}, {60, "1 Peter", 5},
	{61, "2 Peter", 3}, {62, "1 John", 5}, {63, "2 John", 1}, {64, "3 John", 1},
	{65, "Jude", 1}, {66, "Revelation", 22},
}

// aliases maps normalized variants to canonical names.
var aliases = map[string]string{
	"psalm":                "Psalms",
	"song of songs":        "Song of Solomon",
	"songs":                "Song of Solomon",
	"canticles":            "Song of Solomon",
	"revelations":          "Revelation",
	"the revelation":       "Revelation",
	"proverb":              "Proverbs",
	"lamentation":          "Lamentations",
	"act":                  "Acts",
	"acts of the apostles": "Acts",
	"qoheleth":             "Ecclesiastes",
}

var (
	byName = make(map[string]Book, len(books))
	byID   = make(map[int]Book, len(books))
)

func init() {
	for _, b := range books {
		byName[normalize(b.Name)] = b
		byID[b.ID] = b
	}
}

// Books returns the catalog in canonical order.
func Books() []Book {
	out := make([]Book, len(books))
	copy(out, books)
	return out
}

// BookByID returns the book with the given canonical id (1..66).
func BookByID(id int) (Book, bool) {
	b, ok := byID[id]
	return b, ok
}

// CanonicalName resolves a book name or a known variant ("Psalm", "I John",
// "First Corinthians", "Song of Songs") to the catalog spelling.
func CanonicalName(name string) (string, bool) {
	b, ok := Lookup(name)
	if !ok {
		return "", false
	}
	return b.Name, true
}

// Lookup resolves a human book name to its catalog entry.
func Lookup(name string) (Book, bool) {
	key := normalize(name)
	if key == "" {
		return Book{}, false
	}
	if b, ok := byName[key]; ok {
		return b, true
	}
	if canonical, ok := aliases[key]; ok {
		return byName[normalize(canonical)], true
	}
	if numbered := normalizeOrdinal(key); numbered != key {
		if b, ok := byName[numbered]; ok {
			return b, true
		}
		if canonical, ok := aliases[numbered]; ok {
			return byName[normalize(canonical)], true
		}
	}
	return Book{}, false
}

// BookID returns the canonical id of a book name, or 0 if unknown.
func BookID(name string) int {
	b, ok := Lookup(name)
	if !ok {
		return 0
	}
	return b.ID
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, ".", "")
	return strings.Join(strings.Fields(name), " ")
}

// normalizeOrdinal rewrites "i john", "first john", "1st john" and "1john" as "1 john".
func normalizeOrdinal(key string) string {
	prefixes := []struct {
		from, to string
	}{
		{"iii ", "3 "}, {"ii ", "2 "}, {"i ", "1 "},
		{"third ", "3 "}, {"second ", "2 "}, {"first ", "1 "},
		{"3rd ", "3 "}, {"2nd ", "2 "}, {"1st ", "1 "},
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p.from) {
			return p.to + strings.TrimPrefix(key, p.from)
		}
	}
	if len(key) > 1 && key[0] >= '1' && key[0] <= '3' && key[1] != ' ' {
		return key[:1] + " " + key[1:]
	}
	return key
}
