package xzfmt

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/stbuehler/seekxz/internal/blockidx"
	"github.com/stbuehler/seekxz/internal/errs"
)

// blockSource is an io.Reader that serves a synthetic single-Block XZ
// Stream: a freshly-built 12-byte Stream Header carrying the owning
// Stream's real check-type flag, followed by the first Unpadded Size bytes
// of the Block as stored in the underlying file (Block Header and
// Compressed Data; when the Block has padding, that padding and only the
// leading part of the Check). It never serves an Index or a Stream Footer.
//
// This lets the XZ Seekable Decompressor hand the block to
// github.com/xi2/xz's real stream decoder instead of hand-parsing the
// Block Header itself (spec §4.3's load_block): xi2/xz's Read stops
// exactly once its caller-supplied buffer is full (see
// other_examples/ethereum-go-ethereum__reader.go's Read loop), so the
// decoder never needs to reach past the bytes this source actually has.
type blockSource struct {
	header []byte
	cur    *blockidx.Cursor
}

func newBlockSource(p blockidx.ByteProvider, off, length int64, ct checkType) *blockSource {
	return &blockSource{
		header: buildStreamHeader(ct),
		cur:    blockidx.NewCursor(p, off, length),
	}
}

func (s *blockSource) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.header) > 0 {
		n := copy(p, s.header)
		s.header = s.header[n:]
		return n, nil
	}
	if s.cur.Remaining() == 0 {
		return 0, io.EOF
	}
	chunk, err := s.cur.Read(len(p))
	if err != nil {
		if e, ok := err.(*errs.Error); ok {
			return 0, e
		}
		return 0, err
	}
	return copy(p, chunk), nil
}

func buildStreamHeader(ct checkType) []byte {
	h := make([]byte, streamHeaderSize)
	copy(h[0:6], headerMagic[:])
	h[6] = 0
	h[7] = byte(ct)
	crc := crc32.ChecksumIEEE(h[6:8])
	binary.LittleEndian.PutUint32(h[8:12], crc)
	return h
}
