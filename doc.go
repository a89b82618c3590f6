// Package seekxz provides seekable, random-access reading over container
// files laid out as a sequence of independently-decompressible compressed
// blocks with a trailing index: standard XZ streams, and the custom
// IDXDEFL container (a fixed-block raw-DEFLATE container with its own
// compressed block-size index).
//
// Callers open a file or wrap an existing ByteProvider, then issue reads at
// arbitrary uncompressed offsets. The reader locates the covering block,
// decompresses only as much of it as needed, and chains across block
// boundaries transparently.
package seekxz
