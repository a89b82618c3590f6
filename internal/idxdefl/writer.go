package idxdefl

import (
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"

	"github.com/stbuehler/seekxz/internal/errs"
)

// DefaultBlockSize is the default uncompressed chunk size the Encoder
// splits input into, matching the custom container's conventional 64 KiB
// block size.
const DefaultBlockSize = 64 << 10

// DefaultLevel is the raw DEFLATE compression level the Encoder uses,
// matching idx-deflate.cpp's store() (deflateInit2 level 7).
const DefaultLevel = 7

// ProgressFunc is called after every block is written, mirroring
// idx-deflate.cpp's "\rProgress: %i, Ratio: %0.2f" reporting. totalSize is
// 0 if the caller did not supply WithTotalSize.
type ProgressFunc func(bytesIn, bytesOut, totalSize int64)

type encodeConfig struct {
	blockSize int
	level     int
	totalSize int64
	progress  ProgressFunc
}

// EncodeOption configures Encode.
type EncodeOption func(*encodeConfig)

// WithBlockSize overrides the uncompressed block size.
func WithBlockSize(n int) EncodeOption {
	return func(c *encodeConfig) { c.blockSize = n }
}

// WithLevel overrides the raw DEFLATE compression level.
func WithLevel(n int) EncodeOption {
	return func(c *encodeConfig) { c.level = n }
}

// WithTotalSize tells Encode the total input size, used only to compute a
// progress percentage; it is not validated against the actual bytes read.
func WithTotalSize(n int64) EncodeOption {
	return func(c *encodeConfig) { c.totalSize = n }
}

// WithProgress installs a progress callback invoked after every block.
func WithProgress(fn ProgressFunc) EncodeOption {
	return func(c *encodeConfig) { c.progress = fn }
}

// Encode reads r to completion and writes the IDXDEFL container to w, per
// spec §4.5: input is split into blockSize chunks (the last may be
// shorter), each raw-DEFLATE compressed independently; all but the last
// block's compressed length is recorded into a big-endian uint32 table,
// which is itself raw-DEFLATE compressed and appended, followed by the
// 16-byte footer.
func Encode(w io.Writer, r io.Reader, opts ...EncodeOption) error {
	cfg := encodeConfig{blockSize: DefaultBlockSize, level: DefaultLevel}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.blockSize <= 0 {
		return errs.New(errs.IOError, "non-positive block size")
	}

	if _, err := io.WriteString(w, Magic); err != nil {
		return errs.Wrap(errs.IOError, "write magic", err)
	}

	var lengths []uint32
	var bytesIn, bytesOut int64
	var lastBlockSize int64

	chunk, err := readBlock(r, cfg.blockSize)
	if err != nil {
		return errs.Wrap(errs.IOError, "read input", err)
	}
	if chunk == nil {
		return errs.New(errs.IOError, "empty input has no blocks to encode")
	}

	for {
		next, err := readBlock(r, cfg.blockSize)
		if err != nil {
			return errs.Wrap(errs.IOError, "read input", err)
		}

		n, err := compressBlock(w, chunk, cfg.level)
		if err != nil {
			return err
		}
		bytesIn += int64(len(chunk))
		bytesOut += n
		if cfg.progress != nil {
			cfg.progress(bytesIn, bytesOut, cfg.totalSize)
		}

		if next == nil {
			lastBlockSize = int64(len(chunk))
			break
		}
		lengths = append(lengths, uint32(n))
		chunk = next
	}

	idxBuf := make([]byte, 4*len(lengths))
	for i, l := range lengths {
		binary.BigEndian.PutUint32(idxBuf[i*4:], l)
	}
	indexCompLen, err := compressBlock(w, idxBuf, cfg.level)
	if err != nil {
		return err
	}

	footer := make([]byte, footerSize)
	binary.BigEndian.PutUint32(footer[0:4], uint32(indexCompLen))
	binary.BigEndian.PutUint32(footer[4:8], uint32(cfg.blockSize))
	binary.BigEndian.PutUint32(footer[8:12], uint32(len(lengths)))
	binary.BigEndian.PutUint32(footer[12:16], uint32(lastBlockSize))
	if _, err := w.Write(footer); err != nil {
		return errs.Wrap(errs.IOError, "write footer", err)
	}
	return nil
}

// readBlock reads up to blockSize bytes from r. It returns (nil, nil) at
// true EOF (no bytes available) and a short final slice when r ends
// mid-block.
func readBlock(r io.Reader, blockSize int) ([]byte, error) {
	buf := make([]byte, blockSize)
	n, err := io.ReadFull(r, buf)
	switch err {
	case nil:
		return buf, nil
	case io.ErrUnexpectedEOF:
		return buf[:n], nil
	case io.EOF:
		return nil, nil
	default:
		return nil, err
	}
}

// countingWriter tracks the number of bytes written through it, mirroring
// the CountingWriter pattern used elsewhere in this codebase's ancestry to
// size container fields without a second pass over the data.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func compressBlock(w io.Writer, data []byte, level int) (int64, error) {
	cw := &countingWriter{w: w}
	fw, err := flate.NewWriter(cw, level)
	if err != nil {
		return 0, errs.Wrap(errs.IOError, "init deflate writer", err)
	}
	if _, err := fw.Write(data); err != nil {
		return 0, errs.Wrap(errs.IOError, "write block", err)
	}
	if err := fw.Close(); err != nil {
		return 0, errs.Wrap(errs.IOError, "close deflate writer", err)
	}
	return cw.n, nil
}
