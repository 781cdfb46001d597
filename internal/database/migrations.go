package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"
)

// Migration is a forward-only schema change. Each one inspects the live schema and
// does nothing if its target shape is already present.
type Migration struct {
	Name string
	Func func(tx *gorm.DB) error
}

var migrationsList = []Migration{
	{"topic_references_shape", MigrateTopicReferencesShape},
	{"sync_queue_last_error", MigrateSyncQueueLastError},
}

// RunMigrations applies every migration in order.
func RunMigrations(db *gorm.DB) error {
	for _, m := range migrationsList {
		if err := m.Func(db); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
	}
	return nil
}

// MigrateTopicReferencesShape rewrites the old per-language references table
// (topic_id, language_code, content) into one row per topic_id.
func MigrateTopicReferencesShape(db *gorm.DB) error {
	cols, err := tableColumns(db, "offline_topic_references")
	if err != nil {
		return err
	}
	if cols["reference_content"] && !cols["language_code"] {
		return nil
	}
	if !cols["content"] && !cols["reference_content"] {
		return fmt.Errorf("unrecognised offline_topic_references shape: %v", cols)
	}

	source := "content"
	if cols["reference_content"] {
		source = "reference_content"
	}

	log.Printf("[DB] Migrating offline_topic_references to the language-independent shape")
	return db.Transaction(func(tx *gorm.DB) error {
		stmts := []string{
			`CREATE TABLE offline_topic_references_new (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				topic_id TEXT NOT NULL,
				reference_content TEXT NOT NULL,
				UNIQUE(topic_id)
			)`,
			fmt.Sprintf(`INSERT OR IGNORE INTO offline_topic_references_new (topic_id, reference_content)
				SELECT topic_id, %s FROM offline_topic_references ORDER BY id`, source),
			`DROP TABLE offline_topic_references`,
			`ALTER TABLE offline_topic_references_new RENAME TO offline_topic_references`,
		}
		for _, stmt := range stmts {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// MigrateSyncQueueLastError adds the last_error column to outboxes created before it existed.
func MigrateSyncQueueLastError(db *gorm.DB) error {
	cols, err := tableColumns(db, "offline_sync_queue")
	if err != nil {
		return err
	}
	if cols["last_error"] {
		return nil
	}
	return db.Exec(`ALTER TABLE offline_sync_queue ADD COLUMN last_error TEXT NOT NULL DEFAULT ''`).Error
}

func tableColumns(db *gorm.DB, table string) (map[string]bool, error) {
	var names []string
	if err := db.Raw("SELECT name FROM pragma_table_info(?)", table).Scan(&names).Error; err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}
	cols := make(map[string]bool, len(names))
	for _, name := range names {
		cols[name] = true
	}
	return cols, nil
}
