package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationUppercaseNoteTitles   = "2024-05-14_uppercase_note_titles"
	migrationStripUploaderProvider = "2024-06-02_strip_uploader_provider_prefix"

	uppercaseBatchSize = 200
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationUppercaseNoteTitles, apply: uppercaseNoteTitles},
		{name: migrationStripUploaderProvider, apply: stripUploaderProvider},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return fmt.Errorf("migration %s: %w", migration.name, err)
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// Rows imported from the document store kept the title as typed.
// SQLite upper() folds ASCII only, so titles are rewritten with strings.ToUpper like ComposeNote.
func uppercaseNoteTitles(db *gorm.DB) error {
	var rows []notes.Record
	writer := db.Session(&gorm.Session{NewDB: true})
	return db.Model(&notes.Record{}).Select("note_id", "title").FindInBatches(&rows, uppercaseBatchSize, func(_ *gorm.DB, _ int) error {
		for _, row := range rows {
			upper := strings.ToUpper(row.Title)
			if upper == row.Title {
				continue
			}
			if err := writer.Model(&notes.Record{}).Where("note_id = ?", row.NoteID).Update("title", upper).Error; err != nil {
				return err
			}
		}
		return nil
	}).Error
}

func stripUploaderProvider(db *gorm.DB) error {
	const prefix = "google:"
	start := len(prefix) + 1
	statement := fmt.Sprintf("UPDATE notes SET uploaded_by_id = substr(uploaded_by_id, %d) WHERE uploaded_by_id LIKE '%s%%'", start, prefix)
	return db.Exec(statement).Error
}
