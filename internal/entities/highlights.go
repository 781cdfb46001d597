package entities

// Note is a user-authored note mirrored from the server.
type Note struct {
	NoteID        string `gorm:"column:note_id;primaryKey" json:"note_id"`
	BookID        int    `gorm:"column:book_id" json:"book_id"`
	ChapterNumber int    `gorm:"column:chapter_number" json:"chapter_number"`
	VerseNumber   *int   `gorm:"column:verse_number" json:"verse_number,omitempty"`
	Content       string `gorm:"column:content" json:"content"`
	UpdatedAt     string `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

func (Note) TableName() string {
	return "offline_notes"
}

type Highlight struct {
	HighlightID   int64  `gorm:"column:highlight_id;primaryKey;autoIncrement:false" json:"highlight_id"`
	BookID        int    `gorm:"column:book_id" json:"book_id"`
	ChapterNumber int    `gorm:"column:chapter_number" json:"chapter_number"`
	StartVerse    int    `gorm:"column:start_verse" json:"start_verse"`
	EndVerse      int    `gorm:"column:end_verse" json:"end_verse"`
	Color         string `gorm:"column:color" json:"color"`
	StartChar     *int   `gorm:"column:start_char" json:"start_char,omitempty"`
	EndChar       *int   `gorm:"column:end_char" json:"end_char,omitempty"`
	UpdatedAt     string `gorm:"column:updated_at;autoUpdateTime:false" json:"updated_at"`
}

func (Highlight) TableName() string {
	return "offline_highlights"
}

// Bookmark is a saved chapter; the server calls these favorites.
type Bookmark struct {
	FavoriteID    int64  `gorm:"column:favorite_id;primaryKey;autoIncrement:false" json:"favorite_id"`
	BookID        int    `gorm:"column:book_id" json:"book_id"`
	ChapterNumber int    `gorm:"column:chapter_number" json:"chapter_number"`
	CreatedAt     string `gorm:"column:created_at;autoCreateTime:false" json:"created_at"`
}

func (Bookmark) TableName() string {
	return "offline_bookmarks"
}

// UserData is the full server-side set of user content.
type UserData struct {
	Notes      []Note      `json:"notes"`
	Highlights []Highlight `json:"highlights"`
	Bookmarks  []Bookmark  `json:"bookmarks"`
}
