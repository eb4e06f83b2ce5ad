// Package sync holds the debounced save pipeline that decides when the
// in-memory book tree is persisted. Mutations are coalesced inside a debounce
// window, saves are serialized so writes can never reach the store out of
// order, and a teardown flush persists whatever the tree holds at that moment.
package sync

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	"github.com/whitelex/ai-writer-assistant/internal/books"
	"github.com/whitelex/ai-writer-assistant/internal/client"
	"go.uber.org/zap"
)

const defaultDebounce = 750 * time.Millisecond

var (
	// ErrNotLoaded indicates a flush was requested before the initial load
	// produced a tree. Saving before that point could overwrite genuine
	// remote data with an empty tree.
	ErrNotLoaded = errors.New("sync: initial load has not completed")

	errMissingSaver   = errors.New("sync: saver is required")
	errMissingBooks   = errors.New("sync: live tree accessor is required")
	errMissingSession = errors.New("sync: session accessor is required")
)

// Saver persists the full current tree and reports which backend took it.
type Saver interface {
	SaveBooks(ctx context.Context, session client.Session, tree []books.Book) (client.StorageMode, error)
}

// Config describes the dependencies of the controller.
//
// Books and Session are live accessors, not captured values: the controller
// resolves both at the moment a save fires, so a flush can never persist a
// snapshot that was already superseded.
type Config struct {
	Saver    Saver
	Books    func() []books.Book
	Session  func() client.Session
	Debounce time.Duration
	Logger   *zap.Logger
}

// Controller coalesces tree mutations into debounced saves.
type Controller struct {
	saver    Saver
	booksFn  func() []books.Book
	sessFn   func() client.Session
	debounce time.Duration
	logger   *zap.Logger

	mu     gosync.Mutex
	timer  *time.Timer
	saving bool
	queued bool
	loaded bool
	mode   client.StorageMode
	done   chan struct{}
}

// NewController validates the configuration and returns an idle controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Saver == nil {
		return nil, errMissingSaver
	}
	if cfg.Books == nil {
		return nil, errMissingBooks
	}
	if cfg.Session == nil {
		return nil, errMissingSession
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		saver:    cfg.Saver,
		booksFn:  cfg.Books,
		sessFn:   cfg.Session,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// MarkLoaded opens the save gate once the initial load has produced a tree,
// seeding the storage mode with the backend that served the load.
func (c *Controller) MarkLoaded(mode client.StorageMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	c.mode = mode
}

// Mode reports the backend that took the most recent persistence attempt.
func (c *Controller) Mode() client.StorageMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// NotifyChange records that the tree mutated. The debounce timer restarts on
// every call, so only the final state inside a quiet window is persisted. A
// mutation arriving while a save is in flight queues exactly one follow-up
// save instead of firing concurrently.
func (c *Controller) NotifyChange() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return
	}
	if c.saving {
		c.queued = true
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.save(context.Background())
	})
}

// Flush synchronously persists the current tree: any pending timer is
// canceled, an in-flight save is waited out, and the tree is read through the
// live accessor at this moment. Intended for teardown, where it is best
// effort.
func (c *Controller) Flush(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.loaded {
			c.mu.Unlock()
			return ErrNotLoaded
		}
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		if !c.saving {
			c.saving = true
			c.queued = false
			c.done = make(chan struct{})
			c.mu.Unlock()
			break
		}
		inflight := c.done
		c.mu.Unlock()
		select {
		case <-inflight:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.performSave(ctx)
}

// Close cancels any pending save without flushing it.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// save is the debounce-timer target. It claims the saving slot, or queues a
// follow-up when a save is already running.
func (c *Controller) save(ctx context.Context) {
	c.mu.Lock()
	if c.saving {
		c.queued = true
		c.mu.Unlock()
		return
	}
	c.saving = true
	c.done = make(chan struct{})
	c.mu.Unlock()

	if err := c.performSave(ctx); err != nil {
		// Persistence errors never interrupt the writer.
		c.logger.Error("background save failed", zap.Error(err))
	}
}

// performSave assumes the caller holds the saving slot. It resolves the tree
// and session through the live accessors, runs the save, then releases the
// slot and starts the queued follow-up if one accumulated.
func (c *Controller) performSave(ctx context.Context) error {
	tree := c.booksFn()
	session := c.sessFn()

	mode, err := c.saver.SaveBooks(ctx, session, tree)

	c.mu.Lock()
	if err != nil {
		// Even the fallback write failed; the session keeps running in
		// degraded mode and the next mutation retries.
		c.mode = client.StorageModeFallback
	} else {
		c.mode = mode
	}
	c.saving = false
	close(c.done)
	rearm := c.queued
	c.queued = false
	c.mu.Unlock()

	if rearm {
		go c.save(context.Background())
	}
	return err
}
