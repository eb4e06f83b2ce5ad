package books

import (
	"errors"
	"fmt"
	"strings"
)

const maxIdentifierLength = 190

var (
	// ErrInvalidBookID indicates that a book identifier is empty or exceeds storage bounds.
	ErrInvalidBookID = errors.New("books: invalid book id")
	// ErrInvalidChapterID indicates that a chapter identifier is empty or exceeds storage bounds.
	ErrInvalidChapterID = errors.New("books: invalid chapter id")
	// ErrInvalidUserID indicates that a user identifier is empty or exceeds storage bounds.
	ErrInvalidUserID = errors.New("books: invalid user id")
	// ErrBookNotFound indicates that no book with the requested id exists in the tree.
	ErrBookNotFound = errors.New("books: book not found")
	// ErrChapterNotFound indicates that no chapter with the requested id exists in the book.
	ErrChapterNotFound = errors.New("books: chapter not found")
)

// BookID represents a validated book identifier.
type BookID string

// NewBookID validates raw input and returns a BookID.
func NewBookID(rawInput string) (BookID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidBookID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidBookID, maxIdentifierLength)
	}
	return BookID(trimmed), nil
}

// String returns the underlying string identifier.
func (id BookID) String() string {
	return string(id)
}

// ChapterID represents a validated chapter identifier.
type ChapterID string

// NewChapterID validates raw input and returns a ChapterID.
func NewChapterID(rawInput string) (ChapterID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidChapterID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidChapterID, maxIdentifierLength)
	}
	return ChapterID(trimmed), nil
}

// String returns the underlying string identifier.
func (id ChapterID) String() string {
	return string(id)
}

// UserID represents a validated user identifier.
type UserID string

// NewUserID validates raw input and returns a UserID.
func NewUserID(rawInput string) (UserID, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(trimmed) > maxIdentifierLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidUserID, maxIdentifierLength)
	}
	return UserID(trimmed), nil
}

// String returns the underlying string identifier.
func (id UserID) String() string {
	return string(id)
}

// Chapter is a titled unit of rich-text content within a book. WordCount is
// derived from Content and recomputed on every content change; it is never
// independently authoritative.
type Chapter struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	WordCount int    `json:"wordCount"`
}

// Book is a top-level authored work owned by exactly one user.
type Book struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId,omitempty"`
	Title            string    `json:"title"`
	Author           string    `json:"author"`
	CreatedAtSeconds int64     `json:"createdAt"`
	Chapters         []Chapter `json:"chapters"`
}

// Record is the persisted row backing one book document. The full book payload
// is stored as JSON so the document shape can evolve without schema churn.
type Record struct {
	UserID           string `gorm:"column:user_id;primaryKey;size:190;not null;index:idx_books_user_created,priority:1"`
	BookID           string `gorm:"column:book_id;primaryKey;size:190;not null"`
	Title            string `gorm:"column:title;size:512;not null"`
	Author           string `gorm:"column:author;size:320;not null;default:''"`
	CreatedAtSeconds int64  `gorm:"column:created_at_s;not null;index:idx_books_user_created,priority:2"`
	UpdatedAtSeconds int64  `gorm:"column:updated_at_s;not null"`
	PayloadJSON      string `gorm:"column:payload_json;type:text;not null"`
}

// TableName provides the explicit table binding for GORM.
func (Record) TableName() string {
	return "books"
}
