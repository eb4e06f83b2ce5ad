package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	gosync "sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/whitelex/ai-writer-assistant/internal/books"
	"github.com/whitelex/ai-writer-assistant/internal/client"
	"github.com/whitelex/ai-writer-assistant/internal/sync"
	"go.uber.org/zap"
)

// newEditCommand runs a live editing session: the chapter's content lives in a
// local file, every write to that file mutates the in-memory tree and pokes
// the synchronization controller, and an interrupt flushes whatever the tree
// holds at that moment before exiting.
func newEditCommand(app *studio) *cobra.Command {
	var bookFlag, chapterFlag string
	var debounceMS int
	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Edit a chapter through a watched file with debounced saves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEdit(cmd, app, args[0], bookFlag, chapterFlag, time.Duration(debounceMS)*time.Millisecond)
		},
	}
	cmd.Flags().StringVar(&bookFlag, "book", "", "Book id or title (defaults to the first book)")
	cmd.Flags().StringVar(&chapterFlag, "chapter", "", "Chapter id or title (defaults to the first chapter)")
	cmd.Flags().IntVar(&debounceMS, "debounce-ms", 750, "Quiet window before a save fires")
	return cmd
}

func runEdit(cmd *cobra.Command, app *studio, file, bookFlag, chapterFlag string, debounce time.Duration) error {
	session, tree, mode, err := loadLibrary(cmd.Context(), cmd, app)
	if err != nil {
		return err
	}
	bookID, chapterID, err := resolveChapter(tree, bookFlag, chapterFlag)
	if err != nil {
		return err
	}

	// Seed the working file with the current chapter content unless the
	// writer already has one.
	if _, err := os.Stat(file); os.IsNotExist(err) {
		chapter, _ := findChapter(tree, bookID, chapterID)
		if err := os.WriteFile(file, []byte(chapter.Content), 0o600); err != nil {
			return err
		}
	}

	persistence, err := app.persistence()
	if err != nil {
		return err
	}

	// The controller reads the tree through this guarded reference, never
	// through a snapshot captured when the timer was armed.
	var treeMu gosync.Mutex
	currentTree := tree

	controller, err := sync.NewController(sync.Config{
		Saver: persistence,
		Books: func() []books.Book {
			treeMu.Lock()
			defer treeMu.Unlock()
			return currentTree
		},
		Session:  func() client.Session { return session },
		Debounce: debounce,
		Logger:   app.logger,
	})
	if err != nil {
		return err
	}
	defer controller.Close()
	controller.MarkLoaded(mode)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Watch the directory: editors that save via rename replace the inode.
	if err := watcher.Add(filepath.Dir(file)); err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chapter, _ := findChapter(tree, bookID, chapterID)
	fmt.Fprintf(cmd.OutOrStdout(), "editing %s: save the file to sync, Ctrl-C to finish\n", chapter.Title)

	absFile, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return flushAndReport(cmd, controller)
			}
			eventPath, err := filepath.Abs(event.Name)
			if err != nil || eventPath != absFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			content, err := os.ReadFile(file)
			if err != nil {
				app.logger.Warn("could not read working file", zap.Error(err))
				continue
			}
			treeMu.Lock()
			next, err := books.UpdateChapterContent(currentTree, bookID, chapterID, string(content))
			if err == nil {
				currentTree = next
			}
			treeMu.Unlock()
			if err != nil {
				return err
			}
			controller.NotifyChange()
		case err, ok := <-watcher.Errors:
			if ok && err != nil {
				app.logger.Warn("watcher error", zap.Error(err))
			}
		case <-signalCtx.Done():
			return flushAndReport(cmd, controller)
		}
	}
}

func flushAndReport(cmd *cobra.Command, controller *sync.Controller) error {
	flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := controller.Flush(flushCtx); err != nil {
		return err
	}
	reportMode(cmd, controller.Mode())
	fmt.Fprintln(cmd.OutOrStdout(), "session flushed")
	return nil
}
