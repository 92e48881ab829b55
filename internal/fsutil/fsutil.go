// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files
// ending with the specified extension, compared case-insensitively. It
// returns their full paths in lexical order.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), strings.ToLower(extension)) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	slices.Sort(files)
	return files, nil
}

// ExpandPaths replaces every directory in paths by the files below it that
// carry extension. Plain files are kept in place whatever their extension.
func ExpandPaths(paths []string, extension string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		found, err := FindFilesByExtension(p, extension)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("directory %s contains no %s files", p, extension)
		}
		out = append(out, found...)
	}
	return out, nil
}
