package xzfmt

import (
	"testing"

	"github.com/stbuehler/seekxz/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustIndex(t *testing.T, data []byte) (*memProvider, *Reader) {
	t.Helper()
	p := &memProvider{data: data}
	idx, err := ReadIndex(p, 0)
	require.NoError(t, err)
	return p, NewReader(p, idx)
}

func TestReaderReadIntoAcrossBlocks(t *testing.T) {
	plain := []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")
	data := buildXZStream([][]byte{plain[0:8], plain[8:20], plain[20:]})
	_, r := mustIndex(t, data)

	dst := make([]byte, len(plain))
	require.NoError(t, r.ReadInto(0, int64(len(plain)), dst))
	assert.Equal(t, plain, dst)
}

func TestReaderReadIntoOffsetDeterminism(t *testing.T) {
	plain := []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	data := buildXZStream([][]byte{plain[0:10], plain[10:25], plain[25:]})
	_, r := mustIndex(t, data)

	dst := make([]byte, 9)
	require.NoError(t, r.ReadInto(7, 9, dst))
	assert.Equal(t, plain[7:16], dst)
}

func TestReaderRewind(t *testing.T) {
	plain := make([]byte, 100)
	for i := range plain {
		plain[i] = byte(i)
	}
	data := buildXZStream([][]byte{plain[0:30], plain[30:60], plain[60:]})
	_, r := mustIndex(t, data)

	a := make([]byte, 10)
	b := make([]byte, 10)
	c := make([]byte, 10)
	require.NoError(t, r.ReadInto(70, 10, a))
	require.NoError(t, r.ReadInto(0, 10, b))
	require.NoError(t, r.ReadInto(70, 10, c))
	assert.Equal(t, a, c)
	assert.Equal(t, plain[0:10], b)
	assert.Equal(t, plain[70:80], a)
}

func TestReaderForwardContinuity(t *testing.T) {
	plain := []byte("the quick brown fox jumps over the lazy dog")
	data := buildXZStream([][]byte{plain[0:15], plain[15:30], plain[30:]})
	_, r := mustIndex(t, data)

	first := make([]byte, 12)
	second := make([]byte, 9)
	require.NoError(t, r.ReadInto(5, 12, first))
	require.NoError(t, r.ReadInto(17, 9, second))

	whole := make([]byte, 21)
	_, r2 := mustIndex(t, data)
	require.NoError(t, r2.ReadInto(5, 21, whole))
	assert.Equal(t, whole[:12], first)
	assert.Equal(t, whole[12:], second)
}

func TestReaderOutOfRange(t *testing.T) {
	plain := []byte("abcdef")
	data := buildXZStream([][]byte{plain})
	_, r := mustIndex(t, data)

	buf := make([]byte, 1)
	err := r.ReadInto(int64(len(plain)), 1, buf)
	require.Error(t, err)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errs.OutOfRange, e.Kind)

	err = r.ReadInto(-1, 1, buf)
	require.Error(t, err)

	bigBuf := make([]byte, len(plain)+1)
	err = r.ReadInto(0, int64(len(plain)+1), bigBuf)
	require.Error(t, err)
}

func TestReaderZeroCopyRead(t *testing.T) {
	plain := []byte("zero copy view across a whole block of text data")
	data := buildXZStream([][]byte{plain})
	_, r := mustIndex(t, data)

	view, err := r.Read(5, 4096)
	require.NoError(t, err)
	assert.Equal(t, plain[5:], view)
}
