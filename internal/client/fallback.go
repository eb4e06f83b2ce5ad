package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/whitelex/ai-writer-assistant/internal/books"
)

const fallbackFileName = "books.json"

// FallbackStore is the on-device shadow of the remote store: one JSON blob
// holding every user's books on this device. It is shared across users of the
// same device, so every read and write partitions by the book's UserID field.
type FallbackStore struct {
	dir string
}

// NewFallbackStore returns a store rooted at the given directory.
func NewFallbackStore(dir string) *FallbackStore {
	return &FallbackStore{dir: dir}
}

func (f *FallbackStore) path() string {
	return filepath.Join(f.dir, fallbackFileName)
}

func (f *FallbackStore) readAll() ([]books.Book, error) {
	raw, err := os.ReadFile(f.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("client: read fallback store: %w", err)
	}
	var all []books.Book
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("client: decode fallback store: %w", err)
	}
	return all, nil
}

func (f *FallbackStore) writeAll(all []books.Book) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("client: create studio dir: %w", err)
	}
	encoded, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("client: encode fallback store: %w", err)
	}
	// Write-then-rename so a crash mid-write never truncates the blob.
	tmp, err := os.CreateTemp(f.dir, fallbackFileName+".*")
	if err != nil {
		return fmt.Errorf("client: stage fallback store: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("client: stage fallback store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("client: stage fallback store: %w", err)
	}
	if err := os.Rename(tmpName, f.path()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("client: commit fallback store: %w", err)
	}
	return nil
}

// BooksFor returns the stored books belonging to one user. Books owned by
// other users on the device are never exposed.
func (f *FallbackStore) BooksFor(userID books.UserID) ([]books.Book, error) {
	all, err := f.readAll()
	if err != nil {
		return nil, err
	}
	var mine []books.Book
	for _, book := range all {
		if book.UserID == userID.String() {
			mine = append(mine, book)
		}
	}
	return mine, nil
}

// ReplaceFor swaps out one user's book set while leaving every other user's
// books in the blob untouched.
func (f *FallbackStore) ReplaceFor(userID books.UserID, incoming []books.Book) error {
	all, err := f.readAll()
	if err != nil {
		return err
	}
	merged := make([]books.Book, 0, len(all)+len(incoming))
	for _, book := range all {
		if book.UserID != userID.String() {
			merged = append(merged, book)
		}
	}
	for _, book := range incoming {
		book.UserID = userID.String()
		merged = append(merged, book)
	}
	return f.writeAll(merged)
}
