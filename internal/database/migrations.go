package database

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/whitelex/ai-writer-assistant/internal/books"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationRecountChapterWords = "2026-08-12_recount_chapter_word_counts"

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
		{name: migrationRecountChapterWords, apply: recountChapterWordCounts},
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
			return err
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

// recountChapterWordCounts rewrites payloads whose stored word counts disagree
// with their content. Early imports trusted client-supplied counts.
func recountChapterWordCounts(db *gorm.DB) error {
	var records []books.Record
	if err := db.Find(&records).Error; err != nil {
		return err
	}

	for _, record := range records {
		var book books.Book
		if err := json.Unmarshal([]byte(record.PayloadJSON), &book); err != nil {
			// A payload we cannot decode is left for the service layer to
			// report on read.
			continue
		}
		changed := false
		for i := range book.Chapters {
			derived := books.CountWords(book.Chapters[i].Content)
			if book.Chapters[i].WordCount != derived {
				book.Chapters[i].WordCount = derived
				changed = true
			}
		}
		if !changed {
			continue
		}
		payload, err := json.Marshal(book)
		if err != nil {
			return err
		}
		if err := db.Model(&books.Record{}).
			Where("user_id = ? AND book_id = ?", record.UserID, record.BookID).
			Update("payload_json", string(payload)).Error; err != nil {
			return err
		}
	}
	return nil
}
