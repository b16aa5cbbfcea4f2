package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Content returns size bytes of deterministic, non-repeating-per-part content.
func Content(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

// WriteFile creates dir/rel with size bytes of Content and returns its path.
func WriteFile(t *testing.T, dir, rel string, size int) string {
	t.Helper()

	pth := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(pth), 0o755))
	require.NoError(t, os.WriteFile(pth, Content(size), 0o644))

	return pth
}
