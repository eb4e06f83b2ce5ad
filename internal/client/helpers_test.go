package client

import (
	"fmt"
	"testing"

	"github.com/whitelex/ai-writer-assistant/internal/books"
)

func mustUserID(t *testing.T, raw string) books.UserID {
	t.Helper()
	userID, err := books.NewUserID(raw)
	if err != nil {
		t.Fatalf("invalid user id %q: %v", raw, err)
	}
	return userID
}

func sampleBook(bookID, userID, title string) books.Book {
	return books.Book{
		ID:               bookID,
		UserID:           userID,
		Title:            title,
		Author:           "A. Writer",
		CreatedAtSeconds: 1700000000,
		Chapters: []books.Chapter{{
			ID:        bookID + "-ch-1",
			Title:     "Chapter 1",
			Content:   "<p>Hello world</p>",
			WordCount: 2,
		}},
	}
}

type sequentialIDs struct {
	prefix string
	next   int
}

func (s *sequentialIDs) NewID() (string, error) {
	s.next++
	return fmt.Sprintf("%s-%d", s.prefix, s.next), nil
}
