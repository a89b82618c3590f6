package xzfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIndexSingleStreamMultiBlock(t *testing.T) {
	chunks := [][]byte{
		[]byte("ABCD"),
		[]byte("EFGHIJKL"),
		[]byte("MNOPQRSTUVWXYZ"),
	}
	data := buildXZStream(chunks)
	idx, err := ReadIndex(&memProvider{data: data}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4+8+14), idx.UncompressedSize())
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, int64(0), idx.At(0).UncompressedOffset)
	assert.Equal(t, int64(4), idx.At(1).UncompressedOffset)
	assert.Equal(t, int64(12), idx.At(2).UncompressedOffset)
}

func TestReadIndexConcatenatedStreamsWithPadding(t *testing.T) {
	tests := []struct {
		name    string
		padding int
	}{
		{"no padding", 0},
		{"4 byte padding", 4},
		{"8 byte padding", 8},
		{"12 byte padding", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s1 := buildXZStream([][]byte{[]byte("hello ")})
			s2 := buildXZStream([][]byte{[]byte("world!")})
			data := append(append([]byte{}, s1...), make([]byte, tt.padding)...)
			data = append(data, s2...)

			idx, err := ReadIndex(&memProvider{data: data}, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(12), idx.UncompressedSize())
			assert.Equal(t, 2, idx.Len())
			assert.Equal(t, int64(0), idx.At(0).UncompressedOffset)
			assert.Equal(t, int64(6), idx.At(1).UncompressedOffset)
		})
	}
}

func TestReadIndexCorruptFooter(t *testing.T) {
	data := buildXZStream([][]byte{[]byte("payload")})
	// Flip a byte inside the Stream Footer.
	data[len(data)-1] ^= 0xFF
	_, err := ReadIndex(&memProvider{data: data}, 0)
	require.Error(t, err)
}

func TestReadIndexResourceLimit(t *testing.T) {
	data := buildXZStream([][]byte{[]byte("payload")})
	_, err := ReadIndex(&memProvider{data: data}, 4)
	require.Error(t, err)
}

func TestReadIndexTruncated(t *testing.T) {
	_, err := ReadIndex(&memProvider{data: []byte("short")}, 0)
	require.Error(t, err)
}
