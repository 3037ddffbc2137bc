package main

import (
	"fmt"
	"os"

	"github.com/ossyrian/pk2kit"
)

// openArchiveStream opens path for read-write and wraps it as a pk2.Stream.
// The caller is responsible for closing the returned *os.File.
func openArchiveStream(path string) (pk2.Stream, *os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening archive file %s: %w", path, err)
	}
	return pk2.NewFileStream(f), f, nil
}

// createArchiveStream creates a fresh archive file at path, failing if one
// already exists.
func createArchiveStream(path string) (pk2.Stream, *os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("creating archive file %s: %w", path, err)
	}
	return pk2.NewFileStream(f), f, nil
}
