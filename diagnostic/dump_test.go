package diagnostic

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDumpWritesAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.zst")

	d, err := CreateDump(path)
	require.NoError(t, err)

	palette := make([]byte, 3*4)
	indexed := make([]byte, 2*2*4)
	for i := 0; i < 4; i++ {
		indexed[i*4+3] = byte(i % 3)
	}

	require.NoError(t, d.WriteFrame(palette, indexed, 2, 2))
	require.NoError(t, d.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}
