package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/whitelex/ai-writer-assistant/internal/books"
	"go.uber.org/zap"
)

func replaceFirst(content, from, to string) string {
	if from == "" || !strings.Contains(content, from) {
		return content + " " + to
	}
	return strings.Replace(content, from, to, 1)
}

func newGrammarCommand(app *studio) *cobra.Command {
	var bookFlag, chapterFlag string
	var apply bool
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Ask the AI to fix grammar in a chapter",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, tree, _, err := loadLibrary(cmd.Context(), cmd, app)
			if err != nil {
				return err
			}
			bookID, chapterID, err := resolveChapter(tree, bookFlag, chapterFlag)
			if err != nil {
				return err
			}
			chapter, ok := findChapter(tree, bookID, chapterID)
			if !ok {
				return fmt.Errorf("chapter not found")
			}

			result, err := app.remote.FixGrammar(cmd.Context(), session, chapter.Content)
			if err != nil {
				// The chapter is untouched; the assist just did not happen.
				fmt.Fprintln(cmd.ErrOrStderr(), "AI assist unavailable right now; your text is unchanged")
				app.logger.Warn("grammar assist failed", zap.Error(err))
				return nil
			}
			if result.Suggestion == chapter.Content {
				fmt.Fprintln(cmd.OutOrStdout(), "grammar looks good, no changes suggested")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Suggestion)
			if !apply {
				return nil
			}
			next, err := books.UpdateChapterContent(tree, bookID, chapterID, result.Suggestion)
			if err != nil {
				return err
			}
			return saveLibrary(cmd.Context(), cmd, app, session, next)
		},
	}
	cmd.Flags().StringVar(&bookFlag, "book", "", "Book id or title (defaults to the first book)")
	cmd.Flags().StringVar(&chapterFlag, "chapter", "", "Chapter id or title (defaults to the first chapter)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the suggestion back into the chapter")
	return cmd
}

func newExpandCommand(app *studio) *cobra.Command {
	var bookFlag, chapterFlag, snippet string
	var apply bool
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Ask the AI to expand a snippet of prose",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, tree, _, err := loadLibrary(cmd.Context(), cmd, app)
			if err != nil {
				return err
			}
			bookID, chapterID, err := resolveChapter(tree, bookFlag, chapterFlag)
			if err != nil {
				return err
			}
			chapter, ok := findChapter(tree, bookID, chapterID)
			if !ok {
				return fmt.Errorf("chapter not found")
			}
			target := snippet
			if target == "" {
				target = chapter.Content
			}

			result, err := app.remote.ExpandText(cmd.Context(), session, target, chapter.Content)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "AI assist unavailable right now; your text is unchanged")
				app.logger.Warn("expand assist failed", zap.Error(err))
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Suggestion)
			if !apply {
				return nil
			}
			// Splice the expansion over the snippet it grew from.
			content := chapter.Content
			if snippet != "" {
				content = replaceFirst(content, result.Original, result.Suggestion)
			} else {
				content = result.Suggestion
			}
			next, err := books.UpdateChapterContent(tree, bookID, chapterID, content)
			if err != nil {
				return err
			}
			return saveLibrary(cmd.Context(), cmd, app, session, next)
		},
	}
	cmd.Flags().StringVar(&bookFlag, "book", "", "Book id or title (defaults to the first book)")
	cmd.Flags().StringVar(&chapterFlag, "chapter", "", "Chapter id or title (defaults to the first chapter)")
	cmd.Flags().StringVar(&snippet, "snippet", "", "Text to expand (defaults to the whole chapter)")
	cmd.Flags().BoolVar(&apply, "apply", false, "Write the expansion back into the chapter")
	return cmd
}
