package bigdir

// Option configures [Scan], [ScanContext], [All] and [Names].
// Options are applied in order.
type Option func(*options)

const (
	// DefaultBufferSize is the raw backend's getdents64 buffer size.
	//
	// Large enough that most real directories are drained in a handful of
	// syscalls; a directory with 2M entries of 32 byte names takes a couple
	// dozen reads.
	DefaultBufferSize = 5 * 1024 * 1024

	// MinBufferSize is the smallest accepted buffer. getdents64 fails with
	// EINVAL when one record does not fit, and a record with a 255 byte name
	// needs 280 bytes.
	MinBufferSize = 4 * 1024

	// MaxBufferSize caps the buffer to keep one scanner's memory bounded.
	MaxBufferSize = 64 * 1024 * 1024
)

// WithBackend selects the directory reading strategy.
//
// # Default
//
// [BackendAuto]: the raw-buffer backend on Linux, the stream backend
// everywhere else. [BackendRaw] on a platform without getdents64 fails at
// open with [ErrUnsupportedBackend].
func WithBackend(kind BackendKind) Option {
	return func(o *options) {
		o.Backend = kind
	}
}

// WithBufferSize sets the raw backend's buffer size in bytes.
//
// # Tuning guidance
//
// The buffer is the only memory that scales with this option; it is reused
// for every refill and never grows with the entry count. Smaller buffers
// mean more getdents64 calls, larger buffers mean more memory held per open
// scanner. Ignored by the stream backend.
//
// Values <= 0 use [DefaultBufferSize]. Values are clamped to
// [[MinBufferSize], [MaxBufferSize]].
func WithBufferSize(n int) Option {
	return func(o *options) {
		o.BufferSize = n
	}
}

type options struct {
	// Backend selects the enumeration strategy.
	Backend BackendKind
	// BufferSize is the raw backend buffer size in bytes.
	BufferSize int
}

// applyOptions merges option values and applies defaults.
func applyOptions(opts []Option) options {
	cfg := options{}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultBufferSize
	}

	cfg.BufferSize = min(max(cfg.BufferSize, MinBufferSize), MaxBufferSize)

	return cfg
}
