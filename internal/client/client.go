// Package client carries the studio's persistence layer: a remote API client,
// an on-device fallback store, and the Client that degrades from one to the
// other without interrupting the writer.
package client

import (
	"context"
	"errors"
	"time"

	"github.com/whitelex/ai-writer-assistant/internal/books"
	"go.uber.org/zap"
)

var (
	errMissingRemote   = errors.New("client: remote API client is required")
	errMissingFallback = errors.New("client: fallback store is required")
)

// Config describes the dependencies of the persistence client.
type Config struct {
	Remote     *Remote
	Fallback   *FallbackStore
	IDProvider books.IDProvider
	Clock      func() time.Time
	Logger     *zap.Logger
}

// Client reads and writes the full book set for one user, preferring the
// remote store and degrading silently to the on-device fallback.
type Client struct {
	remote     *Remote
	fallback   *FallbackStore
	idProvider books.IDProvider
	clock      func() time.Time
	logger     *zap.Logger
}

// LoadResult is the outcome of a load: the tree, which backend produced it,
// and the remote failure when the fallback served the read.
type LoadResult struct {
	Books []books.Book
	Mode  StorageMode
	Cause error
}

// NewClient validates the configuration and returns a persistence client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Remote == nil {
		return nil, errMissingRemote
	}
	if cfg.Fallback == nil {
		return nil, errMissingFallback
	}
	idProvider := cfg.IDProvider
	if idProvider == nil {
		idProvider = books.NewUUIDProvider()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		remote:     cfg.Remote,
		fallback:   cfg.Fallback,
		idProvider: idProvider,
		clock:      clock,
		logger:     logger,
	}, nil
}

// LoadBooks fetches the user's books from the remote store, falling back to
// the on-device store on any remote failure. An empty fallback is seeded with
// the default starter library so the studio never opens on nothing.
func (c *Client) LoadBooks(ctx context.Context, session Session) (LoadResult, error) {
	userID, err := books.NewUserID(session.ID)
	if err != nil {
		return LoadResult{}, err
	}

	remoteBooks, remoteErr := c.remote.FetchBooks(ctx, session)
	if remoteErr == nil {
		if len(remoteBooks) > 0 {
			return LoadResult{Books: remoteBooks, Mode: StorageModeRemote}, nil
		}
		// First load for this account: seed and persist the starter library.
		seeded, err := books.DefaultLibrary(userID, c.idProvider, c.clock)
		if err != nil {
			return LoadResult{}, err
		}
		if err := c.remote.PushBooks(ctx, session, seeded); err != nil {
			c.logRemoteFailure("seed", err, userID)
			mode, saveErr := c.saveFallback(userID, seeded)
			if saveErr != nil {
				return LoadResult{}, saveErr
			}
			return LoadResult{Books: seeded, Mode: mode, Cause: err}, nil
		}
		return LoadResult{Books: seeded, Mode: StorageModeRemote}, nil
	}

	c.logRemoteFailure("load", remoteErr, userID)

	local, err := c.fallback.BooksFor(userID)
	if err != nil {
		return LoadResult{}, err
	}
	if len(local) == 0 {
		local, err = books.DefaultLibrary(userID, c.idProvider, c.clock)
		if err != nil {
			return LoadResult{}, err
		}
		if err := c.fallback.ReplaceFor(userID, local); err != nil {
			return LoadResult{}, err
		}
	}
	return LoadResult{Books: local, Mode: StorageModeFallback, Cause: remoteErr}, nil
}

// SaveBooks writes the full current book set. A remote failure is swallowed:
// the set always lands in the fallback store and the returned mode tells the
// caller which backend holds it.
func (c *Client) SaveBooks(ctx context.Context, session Session, tree []books.Book) (StorageMode, error) {
	userID, err := books.NewUserID(session.ID)
	if err != nil {
		return "", err
	}

	remoteErr := c.remote.PushBooks(ctx, session, tree)
	if remoteErr == nil {
		return StorageModeRemote, nil
	}
	c.logRemoteFailure("save", remoteErr, userID)

	return c.saveFallback(userID, tree)
}

func (c *Client) saveFallback(userID books.UserID, tree []books.Book) (StorageMode, error) {
	if err := c.fallback.ReplaceFor(userID, tree); err != nil {
		return "", err
	}
	return StorageModeFallback, nil
}

// logRemoteFailure keeps unreachable and rejected outcomes distinguishable in
// the logs even though both degrade to the fallback store.
func (c *Client) logRemoteFailure(operation string, err error, userID books.UserID) {
	var rejected *RemoteRejectedError
	switch {
	case errors.As(err, &rejected):
		c.logger.Warn("remote store rejected request",
			zap.String("operation", operation),
			zap.String("user_id", userID.String()),
			zap.Int("status", rejected.Status),
			zap.String("message", rejected.Message))
	case errors.Is(err, ErrNetworkUnreachable):
		c.logger.Warn("remote store unreachable",
			zap.String("operation", operation),
			zap.String("user_id", userID.String()),
			zap.Error(err))
	default:
		c.logger.Warn("remote store failure",
			zap.String("operation", operation),
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}
