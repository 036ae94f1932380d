package lzw

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitPackerWriteCodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	bp := newBitPacker(&buf)

	codes := []struct {
		code   uint32
		length int
	}{
		{0x3, 2},
		{0x15, 5},
		{0xff, 8},
		{0x1, 1},
	}

	for _, c := range codes {
		bp.writeCode(c.code, c.length)
	}
	bp.padToByte()
	bp.flushChunk()

	require.NoError(t, bp.err)
	require.NotEmpty(t, buf.Bytes())

	// Re-read the bits we wrote, LSB first, and check they match.
	data := buf.Bytes()
	lengthByte := data[0]
	payload := data[1 : 1+int(lengthByte)]

	var bits []uint32
	for _, b := range payload {
		for i := 0; i < 8; i++ {
			bits = append(bits, uint32(b>>i)&1)
		}
	}

	pos := 0
	for _, c := range codes {
		var got uint32
		for i := 0; i < c.length; i++ {
			got |= bits[pos] << i
			pos++
		}
		require.Equal(t, c.code, got)
	}
}

func TestBitPackerFlushesAtChunkBoundary(t *testing.T) {
	var buf bytes.Buffer
	bp := newBitPacker(&buf)

	for i := 0; i < chunkSize; i++ {
		bp.writeCode(uint32(i&0xff), 8)
	}

	// A full 255-byte chunk must have been auto-flushed already.
	require.Equal(t, chunkSize+1, buf.Len())
	require.Equal(t, byte(chunkSize), buf.Bytes()[0])
}

func TestFlushChunkNeverEmitsZeroLength(t *testing.T) {
	var buf bytes.Buffer
	bp := newBitPacker(&buf)

	bp.flushChunk() // nothing written yet

	require.Equal(t, 0, buf.Len())
}
