package books

import (
	"errors"
	"testing"
)

func TestUpdateChapterContentRecomputesWordCount(t *testing.T) {
	tree := sampleTree()
	next, err := UpdateChapterContent(tree, mustBookID(t, "book-1"), mustChapterID(t, "ch-1"), "<p>one two three four</p>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	updated := next[0].Chapters[0]
	if updated.Content != "<p>one two three four</p>" {
		t.Fatalf("unexpected content: %q", updated.Content)
	}
	if updated.WordCount != 4 {
		t.Fatalf("expected word count 4, got %d", updated.WordCount)
	}
}

func TestUpdateChapterContentDoesNotMutateInput(t *testing.T) {
	tree := sampleTree()
	if _, err := UpdateChapterContent(tree, mustBookID(t, "book-1"), mustChapterID(t, "ch-1"), "replaced"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree[0].Chapters[0].Content != "<p>Hello world</p>" {
		t.Fatalf("input tree was mutated: %q", tree[0].Chapters[0].Content)
	}
	if tree[0].Chapters[0].WordCount != 2 {
		t.Fatalf("input word count was mutated: %d", tree[0].Chapters[0].WordCount)
	}
}

func TestUpdateChapterContentEmptyContentZeroWords(t *testing.T) {
	tree := sampleTree()
	next, err := UpdateChapterContent(tree, mustBookID(t, "book-1"), mustChapterID(t, "ch-1"), "   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next[0].Chapters[0].WordCount != 0 {
		t.Fatalf("expected zero words for whitespace content, got %d", next[0].Chapters[0].WordCount)
	}
}

func TestUpdateChapterContentUnknownBook(t *testing.T) {
	tree := sampleTree()
	_, err := UpdateChapterContent(tree, mustBookID(t, "missing"), mustChapterID(t, "ch-1"), "x")
	if !errors.Is(err, ErrBookNotFound) {
		t.Fatalf("expected ErrBookNotFound, got %v", err)
	}
}

func TestUpdateChapterContentUnknownChapter(t *testing.T) {
	tree := sampleTree()
	_, err := UpdateChapterContent(tree, mustBookID(t, "book-1"), mustChapterID(t, "missing"), "x")
	if !errors.Is(err, ErrChapterNotFound) {
		t.Fatalf("expected ErrChapterNotFound, got %v", err)
	}
}

func TestUpdateChapterTitle(t *testing.T) {
	tree := sampleTree()
	next, err := UpdateChapterTitle(tree, mustBookID(t, "book-1"), mustChapterID(t, "ch-2"), "The Reckoning")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next[0].Chapters[1].Title != "The Reckoning" {
		t.Fatalf("unexpected title: %q", next[0].Chapters[1].Title)
	}
	if tree[0].Chapters[1].Title != "Chapter 2" {
		t.Fatalf("input tree was mutated")
	}
}

func TestAddChapterDerivesTitleFromPosition(t *testing.T) {
	tree := sampleTree()
	generator := &staticIDGenerator{ids: []string{"ch-3"}}
	next, err := AddChapter(tree, mustBookID(t, "book-1"), generator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next[0].Chapters) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(next[0].Chapters))
	}
	added := next[0].Chapters[2]
	if added.ID != "ch-3" {
		t.Fatalf("unexpected chapter id: %q", added.ID)
	}
	if added.Title != "New Chapter 3" {
		t.Fatalf("unexpected chapter title: %q", added.Title)
	}
	if added.WordCount != 0 || added.Content != "" {
		t.Fatalf("new chapter should be empty")
	}
	if len(tree[0].Chapters) != 2 {
		t.Fatalf("input tree was mutated")
	}
}

func TestAddBookCreatesOneDefaultChapter(t *testing.T) {
	tree := sampleTree()
	generator := &staticIDGenerator{ids: []string{"book-2", "ch-new"}}
	next, err := AddBook(tree, "Sequel", mustUserID(t, "user-1"), generator, fixedClock(1700000500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next) != 2 {
		t.Fatalf("expected 2 books, got %d", len(next))
	}
	created := next[1]
	if created.ID != "book-2" || created.Title != "Sequel" {
		t.Fatalf("unexpected book: %+v", created)
	}
	if created.UserID != "user-1" {
		t.Fatalf("book not stamped with owner: %q", created.UserID)
	}
	if created.CreatedAtSeconds != 1700000500 {
		t.Fatalf("unexpected creation time: %d", created.CreatedAtSeconds)
	}
	if len(created.Chapters) != 1 || created.Chapters[0].Title != "Chapter 1" {
		t.Fatalf("expected one default chapter, got %+v", created.Chapters)
	}
}

func TestDefaultLibrarySeedsStarterBook(t *testing.T) {
	generator := &staticIDGenerator{ids: []string{"book-seed", "ch-seed"}}
	tree, err := DefaultLibrary(mustUserID(t, "user-9"), generator, fixedClock(1700000000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tree) != 1 {
		t.Fatalf("expected one seeded book, got %d", len(tree))
	}
	seeded := tree[0]
	if seeded.Title != DefaultBookTitle {
		t.Fatalf("unexpected title: %q", seeded.Title)
	}
	if seeded.UserID != "user-9" {
		t.Fatalf("seed not scoped to user: %q", seeded.UserID)
	}
	chapter := seeded.Chapters[0]
	if chapter.WordCount != CountWords(chapter.Content) {
		t.Fatalf("seed word count %d disagrees with content", chapter.WordCount)
	}
	if chapter.WordCount != 4 {
		t.Fatalf("expected 4 words in starter content, got %d", chapter.WordCount)
	}
}
