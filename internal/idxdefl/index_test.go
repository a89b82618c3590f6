package idxdefl

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// storedDeflate wraps data in raw DEFLATE "stored" (BTYPE=00) blocks: no
// compression is attempted, so the encoded length tracks the input length
// almost exactly (a 5-byte header per up-to-64KiB chunk). Used below to
// build an index table large enough to make index_size's top byte nonzero
// without spending real CPU time compressing it.
func storedDeflate(data []byte) []byte {
	var out bytes.Buffer
	const maxChunk = 65535
	off := 0
	for {
		chunk := data[off:]
		n := len(chunk)
		if n > maxChunk {
			n = maxChunk
		}
		final := off+n >= len(data)
		if final {
			out.WriteByte(1)
		} else {
			out.WriteByte(0)
		}
		var lenBuf [4]byte
		binary.LittleEndian.PutUint16(lenBuf[0:2], uint16(n))
		binary.LittleEndian.PutUint16(lenBuf[2:4], ^uint16(n))
		out.Write(lenBuf[:])
		out.Write(chunk[:n])
		off += n
		if final {
			break
		}
	}
	return out.Bytes()
}

// TestReadIndexCorruptFooter exercises scenario S6: zeroing the single byte
// at offset file_size-16, the top byte of the big-endian index_size field.
// That byte is only ever nonzero when index_size is at least 16 MiB, so the
// fixture below declares enough (one-byte, zero-compressed-length) full
// blocks that its index table's raw form is just past that threshold
// (4,300,000 entries of 4 bytes, about 0.4 MiB over 16 MiB); the
// table is wrapped in uncompressed ("stored") DEFLATE blocks rather than run
// through the real compressor so building the fixture stays cheap.
func TestReadIndexCorruptFooter(t *testing.T) {
	const fullBlocks = 4_300_000
	const blockSize = 1
	const lastBlockSize = 3

	// fullBlocks entries, each declaring a zero-length compressed block, so
	// the running offset never advances past the (empty) data region.
	decoded := make([]byte, fullBlocks*4)
	encodedIndex := storedDeflate(decoded)

	size := int64(8 + len(encodedIndex) + footerSize)
	data := make([]byte, size)
	copy(data, Magic)
	copy(data[8:], encodedIndex)

	footer := data[size-footerSize:]
	binary.BigEndian.PutUint32(footer[0:4], uint32(len(encodedIndex)))
	binary.BigEndian.PutUint32(footer[4:8], blockSize)
	binary.BigEndian.PutUint32(footer[8:12], fullBlocks)
	binary.BigEndian.PutUint32(footer[12:16], lastBlockSize)

	require.NotZero(t, data[size-16], "fixture must make index_size's top byte nonzero")
	_, err := ReadIndex(&memProvider{data: data}, 0)
	require.NoError(t, err, "fixture must be valid before corruption")

	// Scenario S6: zero the top byte of index_size in the footer.
	data[size-16] = 0
	_, err = ReadIndex(&memProvider{data: data}, 0)
	require.Error(t, err)
}

func TestReadIndexBadMagic(t *testing.T) {
	plain := []byte("payload")
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, bytes.NewReader(plain), WithBlockSize(4)))
	data := buf.Bytes()
	data[0] = 'X'
	_, err := ReadIndex(&memProvider{data: data}, 0)
	require.Error(t, err)
}

func TestReadIndexTooSmall(t *testing.T) {
	_, err := ReadIndex(&memProvider{data: []byte("short")}, 0)
	require.Error(t, err)
}

func TestSniffMagic(t *testing.T) {
	require.True(t, SniffMagic([]byte(Magic)))
	require.False(t, SniffMagic([]byte("\xfd7zXZ\x00\x00\x00")))
}
