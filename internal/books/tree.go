package books

import (
	"fmt"
	"time"
)

// Default titles used when seeding a library for a user with no stored books.
const (
	DefaultBookTitle      = "Untitled Masterpiece"
	DefaultBookAuthor     = "Author"
	DefaultChapterTitle   = "Chapter 1: The Beginning"
	DefaultChapterContent = "The story starts here..."
)

// Tree operations are pure: every function returns a rebuilt slice and leaves
// its input untouched, so callers can hold the previous tree for cheap
// comparison while a save is pending.

func cloneChapters(chapters []Chapter) []Chapter {
	cloned := make([]Chapter, len(chapters))
	copy(cloned, chapters)
	return cloned
}

func cloneTree(tree []Book) []Book {
	cloned := make([]Book, len(tree))
	for i, book := range tree {
		cloned[i] = book
		cloned[i].Chapters = cloneChapters(book.Chapters)
	}
	return cloned
}

func mapChapter(tree []Book, bookID BookID, chapterID ChapterID, apply func(*Chapter)) ([]Book, error) {
	bookFound := false
	chapterFound := false
	next := cloneTree(tree)
	for i := range next {
		if next[i].ID != bookID.String() {
			continue
		}
		bookFound = true
		for j := range next[i].Chapters {
			if next[i].Chapters[j].ID != chapterID.String() {
				continue
			}
			chapterFound = true
			apply(&next[i].Chapters[j])
		}
	}
	if !bookFound {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
	}
	if !chapterFound {
		return nil, fmt.Errorf("%w: %s", ErrChapterNotFound, chapterID)
	}
	return next, nil
}

// UpdateChapterContent replaces one chapter's content and recomputes its word
// count from the stripped markup.
func UpdateChapterContent(tree []Book, bookID BookID, chapterID ChapterID, content string) ([]Book, error) {
	return mapChapter(tree, bookID, chapterID, func(chapter *Chapter) {
		chapter.Content = content
		chapter.WordCount = CountWords(content)
	})
}

// UpdateChapterTitle replaces one chapter's title.
func UpdateChapterTitle(tree []Book, bookID BookID, chapterID ChapterID, title string) ([]Book, error) {
	return mapChapter(tree, bookID, chapterID, func(chapter *Chapter) {
		chapter.Title = title
	})
}

// UpdateBookTitle replaces one book's title.
func UpdateBookTitle(tree []Book, bookID BookID, title string) ([]Book, error) {
	next := cloneTree(tree)
	for i := range next {
		if next[i].ID == bookID.String() {
			next[i].Title = title
			return next, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
}

// AddChapter appends an empty chapter to the identified book. The default
// title is derived from the chapter's position.
func AddChapter(tree []Book, bookID BookID, idProvider IDProvider) ([]Book, error) {
	chapterID, err := idProvider.NewID()
	if err != nil {
		return nil, err
	}
	next := cloneTree(tree)
	for i := range next {
		if next[i].ID != bookID.String() {
			continue
		}
		next[i].Chapters = append(next[i].Chapters, Chapter{
			ID:        chapterID,
			Title:     fmt.Sprintf("New Chapter %d", len(next[i].Chapters)+1),
			Content:   "",
			WordCount: 0,
		})
		return next, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrBookNotFound, bookID)
}

// AddBook appends a book with one empty chapter and returns the new tree.
func AddBook(tree []Book, title string, userID UserID, idProvider IDProvider, clock func() time.Time) ([]Book, error) {
	bookID, err := idProvider.NewID()
	if err != nil {
		return nil, err
	}
	chapterID, err := idProvider.NewID()
	if err != nil {
		return nil, err
	}
	next := cloneTree(tree)
	next = append(next, Book{
		ID:               bookID,
		UserID:           userID.String(),
		Title:            title,
		Author:           DefaultBookAuthor,
		CreatedAtSeconds: clock().UTC().Unix(),
		Chapters: []Chapter{{
			ID:        chapterID,
			Title:     "Chapter 1",
			Content:   "",
			WordCount: 0,
		}},
	})
	return next, nil
}

// DefaultLibrary seeds the one-book starter tree handed to a user whose
// fallback store holds nothing yet.
func DefaultLibrary(userID UserID, idProvider IDProvider, clock func() time.Time) ([]Book, error) {
	bookID, err := idProvider.NewID()
	if err != nil {
		return nil, err
	}
	chapterID, err := idProvider.NewID()
	if err != nil {
		return nil, err
	}
	return []Book{{
		ID:               bookID,
		UserID:           userID.String(),
		Title:            DefaultBookTitle,
		Author:           DefaultBookAuthor,
		CreatedAtSeconds: clock().UTC().Unix(),
		Chapters: []Chapter{{
			ID:        chapterID,
			Title:     DefaultChapterTitle,
			Content:   DefaultChapterContent,
			WordCount: CountWords(DefaultChapterContent),
		}},
	}}, nil
}
