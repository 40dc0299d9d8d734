package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	TableExtension = ".DB"
	IndexExtension = ".PX"
	BlobExtension  = ".MB"
)

var ErrTableNotFound = errors.New("table file not found")

// Companions are the optional files stored next to a table. Empty paths
// mean the file is absent.
type Companions struct {
	Index string
	Blob  string
}

// FindTable locates <name>.db in dir, ignoring case.
func FindTable(dir, name string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	want := name + TableExtension
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(entry.Name(), want) {
			return filepath.Join(dir, entry.Name()), nil
		}
	}

	return "", fmt.Errorf("%w: %s in %s", ErrTableNotFound, want, dir)
}

// FindCompanions scans the directory of tablePath for files sharing the
// table name prefix. A file whose extension is .PX, or whose stem ends in
// .PX, is the primary index; the same rule with .MB selects the blob file.
// The first match of each kind in directory order wins.
func FindCompanions(tablePath string) (Companions, error) {
	var result Companions

	dir := filepath.Dir(tablePath)
	self := filepath.Base(tablePath)
	prefix := strings.TrimSuffix(self, filepath.Ext(self))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return result, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == self || !hasPrefixFold(name, prefix) {
			continue
		}

		path := filepath.Join(dir, name)
		switch {
		case matchesExtension(name, IndexExtension):
			if result.Index == "" {
				result.Index = path
			}
		case matchesExtension(name, BlobExtension):
			if result.Blob == "" {
				result.Blob = path
			}
		}
	}

	return result, nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func matchesExtension(name, ext string) bool {
	fileExt := filepath.Ext(name)
	if strings.EqualFold(fileExt, ext) {
		return true
	}
	stem := strings.TrimSuffix(name, fileExt)
	return strings.EqualFold(filepath.Ext(stem), ext)
}
