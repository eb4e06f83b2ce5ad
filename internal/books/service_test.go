package books

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:inkwell_books_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    fixedClock(1700000600),
	})
	if err != nil {
		t.Fatalf("failed to construct books service: %v", err)
	}

	return service, db
}

func TestReplaceBooksRoundTrip(t *testing.T) {
	service, _ := newTestService(t)
	userID := mustUserID(t, "user-1")
	tree := sampleTree()

	if err := service.ReplaceBooks(context.Background(), userID, tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := service.ListBooks(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 book, got %d", len(stored))
	}
	if stored[0].ID != "book-1" || stored[0].Title != "First Draft" {
		t.Fatalf("unexpected book: %+v", stored[0])
	}
	if len(stored[0].Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(stored[0].Chapters))
	}
	if stored[0].Chapters[0].Content != "<p>Hello world</p>" {
		t.Fatalf("unexpected content: %q", stored[0].Chapters[0].Content)
	}
	if stored[0].Chapters[0].WordCount != 2 {
		t.Fatalf("unexpected word count: %d", stored[0].Chapters[0].WordCount)
	}
}

func TestReplaceBooksPrunesRemovedBooks(t *testing.T) {
	service, db := newTestService(t)
	userID := mustUserID(t, "user-1")
	first := sampleTree()
	second := []Book{{
		ID:               "book-2",
		Title:            "Replacement",
		Author:           "Author",
		CreatedAtSeconds: 1700000100,
		Chapters:         []Chapter{{ID: "ch-a", Title: "Chapter 1", Content: "x"}},
	}}

	if err := service.ReplaceBooks(context.Background(), userID, first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.ReplaceBooks(context.Background(), userID, second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int64
	if err := db.Model(&Record{}).Where("user_id = ?", userID.String()).Count(&count).Error; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected pruned set of 1 row, got %d", count)
	}

	stored, err := service.ListBooks(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != "book-2" {
		t.Fatalf("expected only the replacement book, got %+v", stored)
	}
}

func TestReplaceBooksUpsertsExistingBook(t *testing.T) {
	service, _ := newTestService(t)
	userID := mustUserID(t, "user-1")
	tree := sampleTree()

	if err := service.ReplaceBooks(context.Background(), userID, tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree[0].Title = "Renamed Draft"
	tree[0].Chapters[0].Content = "<p>entirely new text here</p>"
	if err := service.ReplaceBooks(context.Background(), userID, tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := service.ListBooks(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected single upserted book, got %d", len(stored))
	}
	if stored[0].Title != "Renamed Draft" {
		t.Fatalf("unexpected title: %q", stored[0].Title)
	}
	if stored[0].Chapters[0].WordCount != 4 {
		t.Fatalf("expected recomputed word count 4, got %d", stored[0].Chapters[0].WordCount)
	}
}

func TestReplaceBooksIgnoresClientWordCounts(t *testing.T) {
	service, _ := newTestService(t)
	userID := mustUserID(t, "user-1")
	tree := sampleTree()
	tree[0].Chapters[0].WordCount = 99

	if err := service.ReplaceBooks(context.Background(), userID, tree); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := service.ListBooks(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored[0].Chapters[0].WordCount != 2 {
		t.Fatalf("expected derived word count 2, got %d", stored[0].Chapters[0].WordCount)
	}
}

func TestReplaceBooksIsolatesUsers(t *testing.T) {
	service, _ := newTestService(t)
	userA := mustUserID(t, "user-a")
	userB := mustUserID(t, "user-b")

	treeA := sampleTree()
	treeB := []Book{{
		ID:               "book-b",
		Title:            "B's Book",
		CreatedAtSeconds: 1700000200,
		Chapters:         []Chapter{{ID: "ch-b", Title: "Chapter 1", Content: "b text"}},
	}}

	if err := service.ReplaceBooks(context.Background(), userA, treeA); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := service.ReplaceBooks(context.Background(), userB, treeB); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Emptying A must not touch B.
	if err := service.ReplaceBooks(context.Background(), userA, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	storedA, err := service.ListBooks(context.Background(), userA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(storedA) != 0 {
		t.Fatalf("expected user-a emptied, got %d books", len(storedA))
	}
	storedB, err := service.ListBooks(context.Background(), userB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(storedB) != 1 || storedB[0].ID != "book-b" {
		t.Fatalf("user-b books disturbed: %+v", storedB)
	}
}

func TestReplaceBooksRejectsMissingBookID(t *testing.T) {
	service, _ := newTestService(t)
	userID := mustUserID(t, "user-1")
	tree := []Book{{Title: "No ID"}}

	err := service.ReplaceBooks(context.Background(), userID, tree)
	if err == nil {
		t.Fatalf("expected error for missing book id")
	}
}
