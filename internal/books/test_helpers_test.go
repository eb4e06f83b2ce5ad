package books

import (
	"errors"
	"testing"
	"time"
)

func mustUserID(t *testing.T, value string) UserID {
	t.Helper()
	id, err := NewUserID(value)
	if err != nil {
		t.Fatalf("unexpected user id error: %v", err)
	}
	return id
}

func mustBookID(t *testing.T, value string) BookID {
	t.Helper()
	id, err := NewBookID(value)
	if err != nil {
		t.Fatalf("unexpected book id error: %v", err)
	}
	return id
}

func mustChapterID(t *testing.T, value string) ChapterID {
	t.Helper()
	id, err := NewChapterID(value)
	if err != nil {
		t.Fatalf("unexpected chapter id error: %v", err)
	}
	return id
}

type staticIDGenerator struct {
	ids   []string
	index int
}

func (g *staticIDGenerator) NewID() (string, error) {
	if g.index >= len(g.ids) {
		return "", errors.New("exhausted ids")
	}
	id := g.ids[g.index]
	g.index++
	return id, nil
}

func fixedClock(seconds int64) func() time.Time {
	return func() time.Time { return time.Unix(seconds, 0).UTC() }
}

func sampleTree() []Book {
	return []Book{{
		ID:               "book-1",
		UserID:           "user-1",
		Title:            "First Draft",
		Author:           "Author",
		CreatedAtSeconds: 1700000000,
		Chapters: []Chapter{
			{ID: "ch-1", Title: "Chapter 1", Content: "<p>Hello world</p>", WordCount: 2},
			{ID: "ch-2", Title: "Chapter 2", Content: "", WordCount: 0},
		},
	}}
}
