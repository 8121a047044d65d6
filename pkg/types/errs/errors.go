package errs

import "errors"

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrAlreadyClaimed means another invocation won the pending->processing
	// claim for an item; the loser must leave the item alone.
	ErrAlreadyClaimed = errors.New("queue item already claimed")

	// Skip reasons. Items hitting these go straight to the skipped status,
	// they are not failures.
	ErrNoSyncConfig      = errors.New("no sync config for table")
	ErrSyncDisabled      = errors.New("sync disabled for table")
	ErrOperationDisabled = errors.New("operation not enabled for table")
	ErrNoTarget          = errors.New("sync config has no target endpoint")
)
