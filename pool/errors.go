package pool

import "github.com/pkg/errors"

// Sentinel errors for the allocator's public surface (spec section 7).
// Compare with errors.Is; wrapped instances still satisfy it because
// github.com/pkg/errors implements Unwrap.
var (
	// ErrAlreadyInitialized is returned by Init when the registry already exists.
	ErrAlreadyInitialized = errors.New("mempool: already initialized")

	// ErrNotInitialized is returned by any registry operation before Init.
	ErrNotInitialized = errors.New("mempool: not initialized")

	// ErrOutOfMemory is returned when the backing buffer cannot be
	// acquired, or when the node arena or gap index cannot grow.
	ErrOutOfMemory = errors.New("mempool: out of memory")

	// ErrOutOfSpace is returned by Allocate when no gap is large enough.
	ErrOutOfSpace = errors.New("mempool: out of space")

	// ErrNotEmpty is returned by Close when live allocations remain.
	ErrNotEmpty = errors.New("mempool: pool not empty")

	// ErrBadHandle is returned by Release for a handle that does not
	// refer to a live allocation on this pool.
	ErrBadHandle = errors.New("mempool: bad handle")

	// ErrLeaked is returned by Shutdown when pools are still open.
	ErrLeaked = errors.New("mempool: leaked pools at shutdown")

	// ErrInvalidSize is returned by Open/Allocate for a non-positive size.
	ErrInvalidSize = errors.New("mempool: size must be > 0")

	// ErrInvalidPolicy is returned by Open for an unrecognized policy value.
	ErrInvalidPolicy = errors.New("mempool: invalid placement policy")

	// ErrPoolClosed is returned by Allocate on a pool after Close. Release
	// and Size on a closed pool return ErrBadHandle instead, and a second
	// Close returns nil.
	ErrPoolClosed = errors.New("mempool: pool is closed")
)
