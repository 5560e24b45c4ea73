// pkg/util/fs.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"os"
)

// WriteFileAtomic writes data to filename via a temporary file in the
// same directory, fsyncs it, and renames it over filename. The rename is
// atomic on every platform Go supports, so a reader (or a crash) never
// observes a partially-written file at the destination path.
func WriteFileAtomic(filename string, data []byte) error {
	tmp := filename + ".next"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("%s: %w", tmp, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%s: write: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%s: sync: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%s: close: %w", tmp, err)
	}

	if err := os.Rename(tmp, filename); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmp, filename, err)
	}
	return nil
}

// EnsureDir creates dir (and any missing parents) if it doesn't already
// exist.
func EnsureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%s: %w", dir, err)
	}
	return nil
}
