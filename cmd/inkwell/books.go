package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/whitelex/ai-writer-assistant/internal/books"
	"github.com/whitelex/ai-writer-assistant/internal/client"
)

// loadLibrary loads the session's book tree through the persistence client and
// surfaces the degraded-mode notice when the fallback served the read.
func loadLibrary(ctx context.Context, cmd *cobra.Command, app *studio) (client.Session, []books.Book, client.StorageMode, error) {
	session, err := app.session()
	if err != nil {
		return client.Session{}, nil, "", err
	}
	persistence, err := app.persistence()
	if err != nil {
		return client.Session{}, nil, "", err
	}
	result, err := persistence.LoadBooks(ctx, session)
	if err != nil {
		return client.Session{}, nil, "", err
	}
	reportMode(cmd, result.Mode)
	return session, result.Books, result.Mode, nil
}

// saveLibrary persists the tree and reports which backend took it.
func saveLibrary(ctx context.Context, cmd *cobra.Command, app *studio, session client.Session, tree []books.Book) error {
	persistence, err := app.persistence()
	if err != nil {
		return err
	}
	mode, err := persistence.SaveBooks(ctx, session, tree)
	if err != nil {
		return err
	}
	reportMode(cmd, mode)
	return nil
}

// reportMode is the CLI's persistent durability indicator: it only speaks up
// when writes are not reaching the remote store.
func reportMode(cmd *cobra.Command, mode client.StorageMode) {
	if mode == client.StorageModeFallback {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: server unreachable; working against local copy")
	}
}

// resolveChapter picks the target book and chapter, defaulting to the first of
// each the way the studio opens on the first chapter of the first book.
func resolveChapter(tree []books.Book, bookID, chapterID string) (books.BookID, books.ChapterID, error) {
	if len(tree) == 0 {
		return "", "", fmt.Errorf("no books in your library")
	}
	book := tree[0]
	if bookID != "" {
		found := false
		for _, candidate := range tree {
			if candidate.ID == bookID || strings.EqualFold(candidate.Title, bookID) {
				book = candidate
				found = true
				break
			}
		}
		if !found {
			return "", "", fmt.Errorf("book %q not found", bookID)
		}
	}
	if len(book.Chapters) == 0 {
		return "", "", fmt.Errorf("book %q has no chapters", book.Title)
	}
	chapter := book.Chapters[0]
	if chapterID != "" {
		found := false
		for _, candidate := range book.Chapters {
			if candidate.ID == chapterID || strings.EqualFold(candidate.Title, chapterID) {
				chapter = candidate
				found = true
				break
			}
		}
		if !found {
			return "", "", fmt.Errorf("chapter %q not found in %q", chapterID, book.Title)
		}
	}
	resolvedBook, err := books.NewBookID(book.ID)
	if err != nil {
		return "", "", err
	}
	resolvedChapter, err := books.NewChapterID(chapter.ID)
	if err != nil {
		return "", "", err
	}
	return resolvedBook, resolvedChapter, nil
}

func findChapter(tree []books.Book, bookID books.BookID, chapterID books.ChapterID) (books.Chapter, bool) {
	for _, book := range tree {
		if book.ID != bookID.String() {
			continue
		}
		for _, chapter := range book.Chapters {
			if chapter.ID == chapterID.String() {
				return chapter, true
			}
		}
	}
	return books.Chapter{}, false
}

func newBooksCommand(app *studio) *cobra.Command {
	return &cobra.Command{
		Use:   "books",
		Short: "List your books and chapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tree, _, err := loadLibrary(cmd.Context(), cmd, app)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, book := range tree {
				fmt.Fprintf(out, "%s  %s (by %s)\n", book.ID, book.Title, book.Author)
				for _, chapter := range book.Chapters {
					fmt.Fprintf(out, "  %s  %s (%d words)\n", chapter.ID, chapter.Title, chapter.WordCount)
				}
			}
			return nil
		},
	}
}

func newAddBookCommand(app *studio) *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add-book",
		Short: "Create a new book with one empty chapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, tree, _, err := loadLibrary(cmd.Context(), cmd, app)
			if err != nil {
				return err
			}
			userID, err := books.NewUserID(session.ID)
			if err != nil {
				return err
			}
			next, err := books.AddBook(tree, title, userID, books.NewUUIDProvider(), time.Now)
			if err != nil {
				return err
			}
			if err := saveLibrary(cmd.Context(), cmd, app, session, next); err != nil {
				return err
			}
			created := next[len(next)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "created book %s (%s)\n", created.Title, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Book title")
	cmd.MarkFlagRequired("title") //nolint:errcheck
	return cmd
}

func newAddChapterCommand(app *studio) *cobra.Command {
	var bookFlag string
	cmd := &cobra.Command{
		Use:   "add-chapter",
		Short: "Append a chapter to a book",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, tree, _, err := loadLibrary(cmd.Context(), cmd, app)
			if err != nil {
				return err
			}
			bookID, _, err := resolveChapter(tree, bookFlag, "")
			if err != nil {
				return err
			}
			next, err := books.AddChapter(tree, bookID, books.NewUUIDProvider())
			if err != nil {
				return err
			}
			if err := saveLibrary(cmd.Context(), cmd, app, session, next); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "chapter added")
			return nil
		},
	}
	cmd.Flags().StringVar(&bookFlag, "book", "", "Book id or title (defaults to the first book)")
	return cmd
}

func newWriteCommand(app *studio) *cobra.Command {
	var bookFlag, chapterFlag, file string
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Replace a chapter's content from a file or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(cmd, file)
			if err != nil {
				return err
			}
			session, tree, _, err := loadLibrary(cmd.Context(), cmd, app)
			if err != nil {
				return err
			}
			bookID, chapterID, err := resolveChapter(tree, bookFlag, chapterFlag)
			if err != nil {
				return err
			}
			next, err := books.UpdateChapterContent(tree, bookID, chapterID, content)
			if err != nil {
				return err
			}
			if err := saveLibrary(cmd.Context(), cmd, app, session, next); err != nil {
				return err
			}
			if chapter, ok := findChapter(next, bookID, chapterID); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d words)\n", chapter.Title, chapter.WordCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&bookFlag, "book", "", "Book id or title (defaults to the first book)")
	cmd.Flags().StringVar(&chapterFlag, "chapter", "", "Chapter id or title (defaults to the first chapter)")
	cmd.Flags().StringVar(&file, "file", "", "Content file (defaults to stdin)")
	return cmd
}

func readContent(cmd *cobra.Command, file string) (string, error) {
	if file == "" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
