package kifu

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

func isKIF(path string) bool {
	ext := filepath.Ext(path)
	return strings.EqualFold(ext, ".kif") || strings.EqualFold(ext, ".kifu")
}

// WalkKIF calls fn for every .kif or .kifu file under root in lexical order.
// fn may return filepath.SkipAll to stop early.
func WalkKIF(root string, fn func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isKIF(path) {
			return nil
		}
		return fn(path)
	})
}

// CollectKIF returns every KIF file under root, sorted.
func CollectKIF(root string) ([]string, error) {
	var files []string
	if err := WalkKIF(root, func(path string) error {
		files = append(files, path)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func CountKIF(root string) (int, error) {
	n := 0
	err := WalkKIF(root, func(string) error {
		n++
		return nil
	})
	return n, err
}
