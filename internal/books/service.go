package books

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

// ServiceError carries a stable operation.reason code alongside the cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew   = "books.service.new"
	opListBooks    = "books.list_books"
	opReplaceBooks = "books.replace_books"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}

// ServiceConfig describes the dependencies of the server-side book store.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service persists per-user book sets in the document table.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService validates the configuration and returns a book store service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// ListBooks returns every stored book for the user, oldest first. Word counts
// are re-derived at decode time so a stale payload can never serve a count
// that disagrees with its content.
func (s *Service) ListBooks(ctx context.Context, userID UserID) ([]Book, error) {
	if s.db == nil {
		s.logError(opListBooks, "missing_database", errMissingDatabase)
		return nil, newServiceError(opListBooks, "missing_database", errMissingDatabase)
	}

	var records []Record
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID.String()).
		Order("created_at_s ASC").
		Find(&records).Error; err != nil {
		s.logError(opListBooks, "query_failed", err, zap.String("user_id", userID.String()))
		return nil, newServiceError(opListBooks, "query_failed", err)
	}

	result := make([]Book, 0, len(records))
	for _, record := range records {
		var book Book
		if err := json.Unmarshal([]byte(record.PayloadJSON), &book); err != nil {
			s.logError(opListBooks, "payload_decode_failed", err,
				zap.String("user_id", userID.String()),
				zap.String("book_id", record.BookID))
			return nil, newServiceError(opListBooks, "payload_decode_failed", err)
		}
		book.ID = record.BookID
		book.UserID = record.UserID
		for i := range book.Chapters {
			book.Chapters[i].WordCount = CountWords(book.Chapters[i].Content)
		}
		result = append(result, book)
	}
	return result, nil
}

// ReplaceBooks makes the stored set for the user equal to the provided set.
// Each incoming book is upserted on (user_id, book_id) and rows absent from
// the incoming set are pruned, all inside one transaction, so a failure at any
// point leaves the previous set intact.
func (s *Service) ReplaceBooks(ctx context.Context, userID UserID, incoming []Book) error {
	if s.db == nil {
		s.logError(opReplaceBooks, "missing_database", errMissingDatabase)
		return newServiceError(opReplaceBooks, "missing_database", errMissingDatabase)
	}

	now := s.clock().UTC().Unix()
	keep := make([]string, 0, len(incoming))
	records := make([]Record, 0, len(incoming))
	for _, book := range incoming {
		bookID, err := NewBookID(book.ID)
		if err != nil {
			s.logError(opReplaceBooks, "invalid_book_id", err, zap.String("user_id", userID.String()))
			return newServiceError(opReplaceBooks, "invalid_book_id", err)
		}
		book.UserID = userID.String()
		for i := range book.Chapters {
			book.Chapters[i].WordCount = CountWords(book.Chapters[i].Content)
		}
		payload, err := json.Marshal(book)
		if err != nil {
			s.logError(opReplaceBooks, "payload_encode_failed", err,
				zap.String("user_id", userID.String()),
				zap.String("book_id", bookID.String()))
			return newServiceError(opReplaceBooks, "payload_encode_failed", err)
		}
		keep = append(keep, bookID.String())
		records = append(records, Record{
			UserID:           userID.String(),
			BookID:           bookID.String(),
			Title:            book.Title,
			Author:           book.Author,
			CreatedAtSeconds: book.CreatedAtSeconds,
			UpdatedAtSeconds: now,
			PayloadJSON:      string(payload),
		})
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, record := range records {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
				UpdateAll: true,
			}).Create(&record).Error; err != nil {
				return newServiceError(opReplaceBooks, "book_upsert_failed", err)
			}
		}

		prune := tx.Where("user_id = ?", userID.String())
		if len(keep) > 0 {
			prune = prune.Where("book_id NOT IN ?", keep)
		}
		if err := prune.Delete(&Record{}).Error; err != nil {
			return newServiceError(opReplaceBooks, "book_prune_failed", err)
		}
		return nil
	})
	if txErr != nil {
		s.logError(opReplaceBooks, "transaction_failed", txErr, zap.String("user_id", userID.String()))
		return txErr
	}
	return nil
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("books service error", attrs...)
}
