package core

import (
	"io/fs"
	"os"
	"sort"
)

// Collect returns the paths of all regular files below root, relative to it
// and joined with '/'. Entries appear in directory listing order, files of a
// subdirectory right where the subdirectory itself was listed. Symbolic links
// are resolved, so a link to a directory is descended into.
//
// Any listing or stat failure aborts the walk and no paths are returned.
func Collect(root string) ([]string, error) {
	return collectDir(root, "")
}

// collectDir walks dir, prefixing every collected name with prefix.
func collectDir(dir, prefix string) ([]string, error) {
	entries, err := listDir(dir)
	if err != nil {
		return nil, ioErr("list", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		full := dir + "/" + entry.Name()
		rel := entry.Name()
		if prefix != "" {
			rel = prefix + "/" + entry.Name()
		}

		mode := entry.Type()
		if mode&fs.ModeSymlink != 0 {
			info, err := os.Stat(full)
			if err != nil {
				return nil, ioErr("stat", full, err)
			}
			mode = info.Mode().Type()
		}

		switch {
		case mode.IsDir():
			sub, err := collectDir(full, rel)
			if err != nil {
				return nil, err
			}
			paths = append(paths, sub...)
		case mode.IsRegular():
			paths = append(paths, rel)
		}
	}
	return paths, nil
}

// listDir reads all entries of dir without sorting them and releases the
// directory handle before returning.
func listDir(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.ReadDir(-1)
}

// SortPaths orders paths bytewise so that packing an unchanged tree always
// produces the same archive.
func SortPaths(paths []string) {
	sort.Strings(paths)
}
