package xzfmt

import (
	"encoding/binary"
	"hash/crc32"
)

// The following helpers hand-assemble real, valid XZ streams for tests,
// using LZMA2's "uncompressed chunk" encoding (control byte 0x01/0x02
// followed by a big-endian size and the raw bytes verbatim) so that no
// LZMA compressor is needed to produce fixtures xi2/xz can decode.
// checkType is always checkNone here, so the Check field is zero bytes.

func lzma2UncompressedChunk(payload []byte, resetDict bool) []byte {
	if len(payload) == 0 || len(payload) > 1<<16 {
		panic("lzma2 uncompressed chunk payload out of range")
	}
	ctrl := byte(0x02)
	if resetDict {
		ctrl = 0x01
	}
	out := make([]byte, 0, 3+len(payload))
	out = append(out, ctrl)
	size := uint16(len(payload) - 1)
	out = append(out, byte(size>>8), byte(size))
	out = append(out, payload...)
	return out
}

// buildLZMA2Stream splits payload into chunks of at most 1<<16 bytes and
// appends the LZMA2 end-of-stream terminator.
func buildLZMA2Stream(payload []byte) []byte {
	var out []byte
	first := true
	for len(payload) > 0 {
		n := len(payload)
		if n > 1<<16 {
			n = 1 << 16
		}
		out = append(out, lzma2UncompressedChunk(payload[:n], first)...)
		payload = payload[n:]
		first = false
	}
	out = append(out, 0x00)
	return out
}

// buildBlockHeader builds a minimal single-filter (LZMA2) Block Header with
// no optional compressed/uncompressed size fields.
func buildBlockHeader() []byte {
	body := []byte{0x00, 0x21, 0x01, 0x00} // flags, filterID(LZMA2), propsize=1, dictprop=0
	for len(body)%4 != 3 {
		body = append(body, 0x00)
	}
	full := append([]byte{0x00}, body...)
	full[0] = byte((len(full)+4)/4 - 1) // real size includes the trailing CRC32
	crc := crc32.ChecksumIEEE(full)
	full = append(full, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(full[len(full)-4:], crc)
	return full
}

type fixtureBlock struct {
	header       []byte
	data         []byte
	unpaddedSize int64
	uncompressed int64
}

func buildFixtureBlock(payload []byte) fixtureBlock {
	header := buildBlockHeader()
	data := buildLZMA2Stream(payload)
	return fixtureBlock{
		header:       header,
		data:         data,
		unpaddedSize: int64(len(header) + len(data)),
		uncompressed: int64(len(payload)),
	}
}

// buildXZStream assembles one complete XZ Stream (Header, Blocks with
// padding, Index, Footer) with check type None from the given plaintext
// chunks (one chunk per Block).
func buildXZStream(chunks [][]byte) []byte {
	var out []byte
	out = append(out, headerMagic[:]...)
	flags := []byte{0x00, byte(checkNone)}
	out = append(out, flags...)
	crc := crc32.ChecksumIEEE(flags)
	out = append(out, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(out[len(out)-4:], crc)

	blocks := make([]fixtureBlock, len(chunks))
	for i, c := range chunks {
		blocks[i] = buildFixtureBlock(c)
	}

	for _, b := range blocks {
		out = append(out, b.header...)
		out = append(out, b.data...)
		total := int64(len(b.header) + len(b.data))
		for total%4 != 0 {
			out = append(out, 0x00)
			total++
		}
	}

	indexStart := len(out)
	indexBody := []byte{0x00}
	indexBody = appendUvarint(indexBody, uint64(len(blocks)))
	for _, b := range blocks {
		indexBody = appendUvarint(indexBody, uint64(b.unpaddedSize))
		indexBody = appendUvarint(indexBody, uint64(b.uncompressed))
	}
	for len(indexBody)%4 != 0 {
		indexBody = append(indexBody, 0x00)
	}
	indexCRC := crc32.ChecksumIEEE(indexBody)
	indexField := append(append([]byte{}, indexBody...), 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(indexField[len(indexField)-4:], indexCRC)
	out = append(out, indexField...)
	indexSize := int64(len(out) - indexStart)

	backwardField := uint32(indexSize/4 - 1)
	footerBody := make([]byte, 6)
	binary.LittleEndian.PutUint32(footerBody[0:4], backwardField)
	footerBody[4] = 0x00
	footerBody[5] = byte(checkNone)
	footerCRC := crc32.ChecksumIEEE(footerBody)
	footer := make([]byte, streamFooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], footerCRC)
	copy(footer[4:10], footerBody)
	footer[10], footer[11] = footerMagic[0], footerMagic[1]
	out = append(out, footer...)

	return out
}

func appendUvarint(b []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(b, tmp[:n]...)
}
