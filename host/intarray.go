// Package host contains thin host-application bindings over seekxz.Reader,
// exactly the kind of glue spec.md §6.4 describes as "out of scope" for the
// core: a binding that turns byte reads into typed reads. These are not
// part of the core read path.
package host

import (
	"encoding/binary"

	"github.com/stbuehler/seekxz"
)

// ReadUint32BEArray reads n consecutive big-endian uint32 values starting
// at uncompressed offset off, per spec §6.4: it calls ReadInto(off, 4*n,
// buf) once, then decodes each 4-byte group of buf as a big-endian uint32
// into a new slice (buf itself is left unmodified).
func ReadUint32BEArray(r *seekxz.Reader, off int64, n int) ([]uint32, error) {
	buf := make([]byte, 4*n)
	if err := r.ReadInto(off, int64(len(buf)), buf); err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.BigEndian.Uint32(buf[4*i : 4*i+4])
	}
	return out, nil
}
