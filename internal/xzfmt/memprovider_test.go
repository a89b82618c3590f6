package xzfmt

import "io"

type memProvider struct {
	data []byte
}

func (m *memProvider) Size() int64 { return int64(len(m.data)) }

func (m *memProvider) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
