// Package idxdefl implements the IDXDEFL Index Reader (spec §4.2), the
// per-reader Seekable Decompressor for IDXDEFL containers (spec §4.3's
// IDXDEFL block initialization), and the Encoder/writer (spec §4.5).
// Grounded on original_source/lib/idx-defl-file.cpp (reader/index) and
// original_source/lib/idx-defl.cpp (encoder).
package idxdefl

// Magic is the 8-byte literal container magic.
const Magic = "idxdefl\000"

const footerSize = 16

// maxFieldValue mirrors idx-defl-file.cpp's overflow guard: every
// big-endian footer field must be <= INT32_MAX-16.
const maxFieldValue = int64(1<<31) - 1 - footerSize
