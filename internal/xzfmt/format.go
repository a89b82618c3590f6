// Package xzfmt implements the XZ Index Reader (spec §4.1) and the
// per-reader Seekable Decompressor for XZ containers (spec §4.3), grounded
// on the original XZFileReaderState (original_source/lib/xz-file.cpp) and
// on the wire-format details exposed by github.com/xi2/xz
// (other_examples/ethereum-go-ethereum__dec_stream.go,
// other_examples/ethereum-go-ethereum__dec_xz.go).
package xzfmt

// checkType mirrors xi2/xz's CheckID constants (dec_xz.go): the integrity
// check algorithm recorded in a Stream's flags.
type checkType byte

const (
	checkNone   checkType = 0x00
	checkCRC32  checkType = 0x01
	checkCRC64  checkType = 0x04
	checkSHA256 checkType = 0x0A
)

const (
	streamHeaderSize = 12
	streamFooterSize = 12
)

var headerMagic = [6]byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
var footerMagic = [2]byte{'Y', 'Z'}

// streamFlags is the decoded 2-byte Stream Flags field shared by the
// Stream Header and Stream Footer.
type streamFlags struct {
	check checkType
}
