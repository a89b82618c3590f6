package seekxz

import (
	"log/slog"

	"github.com/stbuehler/seekxz/internal/errs"
	"github.com/stbuehler/seekxz/internal/idxdefl"
	"github.com/stbuehler/seekxz/internal/xzfmt"
)

// openConfig holds Reader construction options, configured via Option
// functions in the teacher's functional-options style (ReaderOption,
// ClientOption) rather than an exported config struct.
type openConfig struct {
	memLimit int64
	logger   *slog.Logger
}

// Option configures Open/OpenProvider.
type Option func(*openConfig)

// WithIndexMemLimit overrides the hard cap on cumulative index memory
// (spec §4.1); the default is xzfmt.DefaultMemLimit (16 MiB) for XZ and
// idxdefl.DefaultMemLimit for IDXDEFL.
func WithIndexMemLimit(n int64) Option {
	return func(c *openConfig) { c.memLimit = n }
}

// WithLogger installs a *slog.Logger for coarse operational events: one
// Debug event each time a container is opened. Nothing else logs, including
// the core decode hot path; defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *openConfig) { c.logger = l }
}

// formatReader is the small capability-dispatch interface (spec §9) that
// both internal format readers satisfy, letting Reader stay a thin
// tagged-by-interface wrapper instead of an open inheritance hierarchy.
type formatReader interface {
	UncompressedSize() int64
	ReadInto(off, length int64, dst []byte) error
	Read(off, max int64) ([]byte, error)
	Close() error
}

// Reader provides random access to the uncompressed contents of an XZ or
// IDXDEFL container. A Reader is not safe for concurrent use: it holds
// mutable decoder state and is exclusive to its owning goroutine at any
// instant (spec §5), though the underlying ByteProvider may be shared by
// multiple Readers.
type Reader struct {
	provider ByteProvider
	ownsProv bool
	impl     formatReader
	logger   *slog.Logger
}

// Open opens path and auto-detects its container format.
func Open(path string, opts ...Option) (*Reader, error) {
	p, err := OpenFileProvider(path)
	if err != nil {
		return nil, err
	}
	r, err := OpenProvider(p, opts...)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	r.ownsProv = true
	return r, nil
}

// OpenProvider wraps an existing ByteProvider, auto-detecting its container
// format by sniffing the first 8 bytes (spec §4.4). The caller retains
// ownership of p; Reader.Close does not close it.
func OpenProvider(p ByteProvider, opts ...Option) (*Reader, error) {
	cfg := openConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if p.Size() < 8 {
		return nil, wrap(errs.CorruptContainer, "file too small to contain a magic", nil)
	}
	var magic [8]byte
	if _, err := p.ReadAt(magic[:], 0); err != nil {
		return nil, wrap(errs.IOError, "read magic", err)
	}

	var impl formatReader
	if idxdefl.SniffMagic(magic[:]) {
		idx, err := idxdefl.ReadIndex(p, cfg.memLimit)
		if err != nil {
			return nil, err
		}
		impl = idxdefl.NewReader(p, idx)
		cfg.logger.Debug("seekxz: opened idxdefl container", "blocks", idx.Len(), "size", idx.UncompressedSize())
	} else {
		idx, err := xzfmt.ReadIndex(p, cfg.memLimit)
		if err != nil {
			return nil, err
		}
		impl = xzfmt.NewReader(p, idx)
		cfg.logger.Debug("seekxz: opened xz container", "blocks", idx.Len(), "size", idx.UncompressedSize())
	}

	return &Reader{provider: p, impl: impl, logger: cfg.logger}, nil
}

// UncompressedSize returns the total decoded size of the container.
func (r *Reader) UncompressedSize() int64 {
	if r.impl == nil {
		return 0
	}
	return r.impl.UncompressedSize()
}

// ReadInto fills dst[:length] with the decoded bytes starting at
// uncompressed offset off.
func (r *Reader) ReadInto(off, length int64, dst []byte) error {
	if r.impl == nil {
		return wrap(errs.NotOpen, "reader is closed", nil)
	}
	if int64(len(dst)) < length {
		return wrap(errs.OutOfRange, "destination buffer smaller than length", nil)
	}
	return r.impl.ReadInto(off, length, dst)
}

// Read decodes up to max bytes starting at uncompressed offset off and
// returns a borrowed view valid until the next call on this Reader.
func (r *Reader) Read(off, max int64) ([]byte, error) {
	if r.impl == nil {
		return nil, wrap(errs.NotOpen, "reader is closed", nil)
	}
	return r.impl.Read(off, max)
}

// Close releases the Reader's decoder state. If the Reader was created via
// Open, it also closes the underlying provider.
func (r *Reader) Close() error {
	if r.impl == nil {
		return nil
	}
	err := r.impl.Close()
	r.impl = nil
	if r.ownsProv {
		if cerr := r.provider.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

