package bufcache

import (
	"errors"

	jerrors "github.com/juju/errors"
)

// The three fatal error kinds from spec §7. They are signalled to the
// caller as ordinary errors (two sentinels below, plus the *OpError that
// ioFailure builds for I/O failures) — the cache package itself never
// panics or aborts; propagation policy (treating them as fatal) belongs to
// the calling context, same as the teacher's buffer_pool/errors.go leaves
// IsNotFound/IsBufferPoolFull/... for callers to act on.
var (
	// ErrNoBuffers is returned by Bget/Bread when every buffer is pinned
	// or dirty and no victim can be chosen. Correct usage (bounded
	// buffers held per operation, pool sized within capacity) makes this
	// unreachable; seeing it indicates a leak or an undersized pool.
	ErrNoBuffers = errors.New("bufcache: no buffers available for eviction")

	// ErrLockMisuse is returned by Bwrite/Brelse when called without the
	// buffer's sleep lock held.
	ErrLockMisuse = errors.New("bufcache: sleep lock not held by caller")
)

// OpError wraps an underlying error with the operation that produced it,
// mirroring buffer_pool/errors.go's BufferPoolError.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op + ": <nil>"
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// ioFailure wraps a Device error with a stack trace via juju/errors, the
// same tracing idiom the teacher uses for its network session errors
// (jerrors.Trace / jerrors.Annotatef), and tags the operation so a caller
// can tell a read failure from a write failure.
func ioFailure(op string, id Identity, err error) error {
	return &OpError{
		Op:  op,
		Err: jerrors.Annotatef(err, "disk_rw(dev=%d, blockno=%d)", id.Dev, id.BlockNo),
	}
}

// IsNoBuffers reports whether err is (or wraps) ErrNoBuffers.
func IsNoBuffers(err error) bool { return errors.Is(err, ErrNoBuffers) }

// IsLockMisuse reports whether err is (or wraps) ErrLockMisuse.
func IsLockMisuse(err error) bool { return errors.Is(err, ErrLockMisuse) }
