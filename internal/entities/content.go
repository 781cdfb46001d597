package entities

// Verse is one row of a downloaded Bible version.
type Verse struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	VersionKey    string `gorm:"column:version_key" json:"version_key,omitempty"`
	BookID        int    `gorm:"column:book_id" json:"book_id"`
	ChapterNumber int    `gorm:"column:chapter_number" json:"chapter_number"`
	VerseNumber   int    `gorm:"column:verse_number" json:"verse_number"`
	Text          string `gorm:"column:text" json:"text"`
}

func (Verse) TableName() string {
	return "offline_verses"
}

// CommentaryEntry is one explanation of a verse range in a given language.
type CommentaryEntry struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	LanguageCode  string `gorm:"column:language_code" json:"language_code,omitempty"`
	ExplanationID int64  `gorm:"column:explanation_id" json:"explanation_id"`
	BookID        int    `gorm:"column:book_id" json:"book_id"`
	ChapterNumber int    `gorm:"column:chapter_number" json:"chapter_number"`
	VerseStart    *int   `gorm:"column:verse_start" json:"verse_start,omitempty"`
	VerseEnd      *int   `gorm:"column:verse_end" json:"verse_end,omitempty"`
	Type          string `gorm:"column:type" json:"type"`
	Explanation   string `gorm:"column:explanation" json:"explanation"`
}

func (CommentaryEntry) TableName() string {
	return "offline_explanations"
}

type Topic struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	LanguageCode string `gorm:"column:language_code" json:"language_code"`
	TopicID      string `gorm:"column:topic_id" json:"topic_id"`
	Name         string `gorm:"column:name" json:"name"`
	Content      string `gorm:"column:content" json:"content"`
	Category     string `gorm:"column:category" json:"category"`
	SortOrder    *int   `gorm:"column:sort_order" json:"sort_order,omitempty"`
}

func (Topic) TableName() string {
	return "offline_topics"
}

// TopicReference is language independent: one row per topic_id.
type TopicReference struct {
	ID               uint   `gorm:"primaryKey" json:"-"`
	TopicID          string `gorm:"column:topic_id" json:"topic_id"`
	ReferenceContent string `gorm:"column:reference_content" json:"reference_content"`
}

func (TopicReference) TableName() string {
	return "offline_topic_references"
}

type TopicExplanation struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	LanguageCode string `gorm:"column:language_code" json:"language_code"`
	TopicID      string `gorm:"column:topic_id" json:"topic_id"`
	Type         string `gorm:"column:type" json:"type"`
	Explanation  string `gorm:"column:explanation" json:"explanation"`
}

func (TopicExplanation) TableName() string {
	return "offline_topic_explanations"
}

// TopicsPayload is the body of the bulk topics endpoint for one language.
type TopicsPayload struct {
	Topics       []Topic            `json:"topics"`
	References   []TopicReference   `json:"references"`
	Explanations []TopicExplanation `json:"explanations"`
}
