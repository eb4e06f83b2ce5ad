package client

import (
	"errors"
	"fmt"
)

var (
	// ErrNetworkUnreachable indicates the remote store could not be reached at
	// all: connection refused, DNS failure, or timeout.
	ErrNetworkUnreachable = errors.New("client: remote store unreachable")
	// ErrNoSession indicates an operation that needs an authenticated session
	// was attempted without one.
	ErrNoSession = errors.New("client: no active session")
)

// RemoteRejectedError indicates the remote store answered with a non-success
// status. It is distinguishable from ErrNetworkUnreachable in logs but both
// drive the same fallback behavior.
type RemoteRejectedError struct {
	Status  int
	Message string
}

func (e *RemoteRejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: remote store rejected request (status %d)", e.Status)
	}
	return fmt.Sprintf("client: remote store rejected request (status %d): %s", e.Status, e.Message)
}

// StorageMode reflects the last known reachability of the remote store. It is
// never persisted; every persistence attempt recomputes it.
type StorageMode string

const (
	// StorageModeRemote means the last persistence attempt reached the
	// durable remote store.
	StorageModeRemote StorageMode = "remote"
	// StorageModeFallback means the last attempt failed and data went to the
	// on-device store instead.
	StorageModeFallback StorageMode = "local-fallback"
)
