// Package topics stores topical content: topics and topic explanations per language,
// and topic references, which are shared by every language.
//
// Reads take a locale and walk a fallback chain: the exact locale, its base language,
// any other locale with the same base, then FallbackLocale.
package topics

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/metadata"
	"github.com/versemate/offlinestore/internal/entities"
)

const (
	TopicBatchSize       = 100
	ReferenceBatchSize   = 100
	ExplanationBatchSize = 100

	// FallbackLocale is the last locale tried by every read.
	FallbackLocale = "en"

	// idBatchSize bounds the number of bound parameters in an IN list.
	idBatchSize = 500
)

// Repository handles all topic database operations.
type Repository struct {
	engine *database.Engine
}

// NewRepository creates a new topics repository.
func NewRepository(engine *database.Engine) *Repository {
	return &Repository{engine: engine}
}

// InsertTopics replaces the topics and topic explanations of languageCode. References
// are keyed by topic id only, so the references present in the payload are purged by
// id and rewritten; references of other topic ids are left alone.
func (r *Repository) InsertTopics(ctx context.Context, languageCode string, payload entities.TopicsPayload) error {
	topics := make([]entities.Topic, len(payload.Topics))
	for i, t := range payload.Topics {
		t.ID = 0
		t.LanguageCode = languageCode
		topics[i] = t
	}
	explanations := make([]entities.TopicExplanation, len(payload.Explanations))
	for i, e := range payload.Explanations {
		e.ID = 0
		e.LanguageCode = languageCode
		explanations[i] = e
	}
	references := make([]entities.TopicReference, len(payload.References))
	refIDs := make([]string, len(payload.References))
	for i, ref := range payload.References {
		ref.ID = 0
		references[i] = ref
		refIDs[i] = ref.TopicID
	}

	topicBatches := database.Batches(topics, TopicBatchSize)
	first := func(tx *gorm.DB) error {
		if err := tx.Where("language_code = ?", languageCode).Delete(&entities.Topic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("language_code = ?", languageCode).Delete(&entities.TopicExplanation{}).Error; err != nil {
			return err
		}
		for _, ids := range database.Batches(refIDs, idBatchSize) {
			if err := tx.Where("topic_id IN ?", ids).Delete(&entities.TopicReference{}).Error; err != nil {
				return err
			}
		}
		if len(topicBatches) == 0 {
			return nil
		}
		return insertIgnore(topicBatches[0])(tx)
	}

	var rest []database.TxFunc
	if len(topicBatches) > 1 {
		for _, batch := range topicBatches[1:] {
			rest = append(rest, insertIgnore(batch))
		}
	}
	for _, batch := range database.Batches(references, ReferenceBatchSize) {
		rest = append(rest, insertIgnore(batch))
	}
	for _, batch := range database.Batches(explanations, ExplanationBatchSize) {
		rest = append(rest, insertIgnore(batch))
	}
	return r.engine.WriteChunks(ctx, first, rest)
}

// insertIgnore skips rows colliding with a unique key, as the server may repeat ids.
func insertIgnore[T any](rows []T) database.TxFunc {
	return func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	}
}

// GetTopics returns the topics of the first locale in the fallback chain that has any,
// optionally restricted to a category.
func (r *Repository) GetTopics(ctx context.Context, locale, category string) ([]entities.Topic, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	chain, err := localeChain(db, &entities.Topic{}, locale)
	if err != nil {
		return nil, err
	}
	for _, lang := range chain {
		q := db.Where("language_code = ?", lang)
		if category != "" {
			q = q.Where("category = ?", category)
		}
		var topics []entities.Topic
		if err := q.Order("sort_order IS NULL, sort_order, name").Find(&topics).Error; err != nil {
			return nil, err
		}
		if len(topics) > 0 {
			return topics, nil
		}
	}
	return nil, nil
}

// GetTopic returns one topic, walking the fallback chain. found is false when no
// locale in the chain has the topic.
func (r *Repository) GetTopic(ctx context.Context, locale, topicID string) (*entities.Topic, bool, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, false, err
	}
	chain, err := localeChain(db, &entities.Topic{}, locale)
	if err != nil {
		return nil, false, err
	}
	for _, lang := range chain {
		var topic entities.Topic
		err := db.Where("language_code = ? AND topic_id = ?", lang, topicID).First(&topic).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return &topic, true, nil
	}
	return nil, false, nil
}

// GetTopicExplanation returns the explanation of a topic of the given type,
// walking the fallback chain.
func (r *Repository) GetTopicExplanation(ctx context.Context, locale, topicID, explanationType string) (*entities.TopicExplanation, bool, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, false, err
	}
	chain, err := localeChain(db, &entities.TopicExplanation{}, locale)
	if err != nil {
		return nil, false, err
	}
	for _, lang := range chain {
		var exp entities.TopicExplanation
		err := db.Where("language_code = ? AND topic_id = ? AND type = ?", lang, topicID, explanationType).First(&exp).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return &exp, true, nil
	}
	return nil, false, nil
}

// GetTopicReference returns the reference content of a topic.
func (r *Repository) GetTopicReference(ctx context.Context, topicID string) (*entities.TopicReference, bool, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, false, err
	}
	var ref entities.TopicReference
	err = db.Where("topic_id = ?", topicID).First(&ref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &ref, true, nil
}

// IsLanguageDownloaded reports whether topics for the language have a metadata row.
func (r *Repository) IsLanguageDownloaded(ctx context.Context, languageCode string) (bool, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return false, err
	}
	return metadata.Exists(db, entities.MetadataKey(entities.ResourceTopics, languageCode))
}

// DeleteLanguage removes a language's topics, explanations and metadata row, and the
// references of its topic ids that no remaining language still uses.
func (r *Repository) DeleteLanguage(ctx context.Context, languageCode string) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&entities.Topic{}).Where("language_code = ?", languageCode).
			Distinct().Pluck("topic_id", &ids).Error; err != nil {
			return err
		}
		if err := tx.Where("language_code = ?", languageCode).Delete(&entities.Topic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("language_code = ?", languageCode).Delete(&entities.TopicExplanation{}).Error; err != nil {
			return err
		}
		for _, batch := range database.Batches(ids, idBatchSize) {
			err := tx.Exec(`DELETE FROM offline_topic_references
				WHERE topic_id IN ? AND topic_id NOT IN (SELECT topic_id FROM offline_topics)`, batch).Error
			if err != nil {
				return err
			}
		}
		return metadata.Delete(tx, entities.MetadataKey(entities.ResourceTopics, languageCode))
	})
}

// BaseLanguage returns the lower-cased part of a locale before any hyphen or underscore.
func BaseLanguage(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		return locale[:i]
	}
	return locale
}

// localeChain lists the locales to try for a read, without duplicates.
func localeChain(db *gorm.DB, model any, locale string) ([]string, error) {
	var chain []string
	seen := make(map[string]bool)
	add := func(l string) {
		if l != "" && !seen[l] {
			seen[l] = true
			chain = append(chain, l)
		}
	}

	locale = strings.TrimSpace(locale)
	base := BaseLanguage(locale)
	add(locale)
	add(base)

	if base != "" {
		var siblings []string
		err := db.Model(model).
			Where("language_code LIKE ?", base+"-%").
			Distinct().
			Order("language_code").
			Pluck("language_code", &siblings).Error
		if err != nil {
			return nil, err
		}
		for _, s := range siblings {
			add(s)
		}
	}
	add(FallbackLocale)
	return chain, nil
}
