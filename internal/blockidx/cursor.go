package blockidx

import (
	"io"

	"github.com/stbuehler/seekxz/internal/errs"
)

// Cursor holds a ByteProvider reference, a current offset, and a remaining
// readable-length window; it offers sequential Read (up to a max chunk
// size) and exact ReadFull. This mirrors the original implementation's
// FileReader: a thin positional cursor layered over the raw provider, used
// both while walking container footers/indexes and while pulling compressed
// input chunks during block decode.
type Cursor struct {
	p      ByteProvider
	offset int64
	length int64 // remaining bytes in window; -1 means unbounded (to end of provider)
}

// NewCursor returns a Cursor starting at offset with the given window
// length (-1 for unbounded, i.e. to the end of the provider).
func NewCursor(p ByteProvider, offset, length int64) *Cursor {
	c := &Cursor{p: p}
	c.Seek(offset, length)
	return c
}

// Seek repositions the cursor, clamping length to the provider's actual
// remaining size.
func (c *Cursor) Seek(offset, length int64) {
	c.offset = offset
	c.length = length
	c.fixLength()
}

func (c *Cursor) fixLength() {
	size := c.p.Size()
	if c.offset > size {
		c.length = 0
		return
	}
	remaining := size - c.offset
	if c.length < 0 || c.length > remaining {
		c.length = remaining
	}
}

// Offset returns the next read offset.
func (c *Cursor) Offset() int64 { return c.offset }

// Remaining returns the number of bytes left in the window.
func (c *Cursor) Remaining() int64 { return c.length }

// Read pulls up to maxBufSize bytes sequentially from the window. It
// returns a nil slice with io.EOF when the window is exhausted; that is not
// itself an error condition for callers that expect to hit the end of a
// bounded region.
func (c *Cursor) Read(maxBufSize int) ([]byte, error) {
	if maxBufSize <= 0 {
		return nil, errs.New(errs.IOError, "non-positive read size")
	}
	want := int64(maxBufSize)
	if want > c.length {
		want = c.length
	}
	if want == 0 {
		return nil, io.EOF
	}
	buf := make([]byte, want)
	n, err := c.p.ReadAt(buf, c.offset)
	if err != nil && err != io.EOF {
		return nil, errs.Wrap(errs.IOError, "read", err)
	}
	if int64(n) < want {
		return nil, errs.Wrap(errs.UnexpectedEOF, "short read", io.ErrUnexpectedEOF)
	}
	c.offset += int64(n)
	c.length -= int64(n)
	return buf[:n], nil
}

// ReadFull reads exactly len(dst) bytes into dst, failing UnexpectedEOF if
// the window runs out first.
func (c *Cursor) ReadFull(dst []byte) error {
	if len(dst) == 0 {
		return nil
	}
	if int64(len(dst)) > c.length {
		return errs.New(errs.UnexpectedEOF, "read past end of window")
	}
	n, err := c.p.ReadAt(dst, c.offset)
	if err != nil && err != io.EOF {
		return errs.Wrap(errs.IOError, "read", err)
	}
	if n < len(dst) {
		return errs.Wrap(errs.UnexpectedEOF, "short read", io.ErrUnexpectedEOF)
	}
	c.offset += int64(n)
	c.length -= int64(n)
	return nil
}
