package kifu_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kifu/pkg/kifu"
)

func TestCollectKIF(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.kif", "a.KIF", "sub/c.kifu", "notes.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("先手：A\n"), 0o644))
	}

	files, err := kifu.CollectKIF(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.KIF"),
		filepath.Join(dir, "b.kif"),
		filepath.Join(dir, "sub/c.kifu"),
	}, files)

	n, err := kifu.CountKIF(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var seen []string
	require.NoError(t, kifu.WalkKIF(dir, func(path string) error {
		seen = append(seen, path)
		return filepath.SkipAll
	}))
	assert.Len(t, seen, 1)
}

func TestCollectKIFMissingDir(t *testing.T) {
	_, err := kifu.CollectKIF(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
