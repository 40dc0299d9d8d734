//go:build !unix

package io

import "os"

func mmapFile(f *os.File, size int64) ([]byte, error) {
	return nil, ErrMmapDisabled
}

func munmapFile(b []byte) error {
	return nil
}
