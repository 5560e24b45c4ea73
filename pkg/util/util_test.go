// pkg/util/util_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestErrorLoggerHierarchy(t *testing.T) {
	var e ErrorLogger
	e.Push("options")
	e.Push("max_num_levels")
	e.ErrorString("must be non-negative, got %d", -1)
	e.Pop()
	e.Pop()

	if !e.HaveErrors() {
		t.Fatalf("expected HaveErrors to be true")
	}
	if got := e.String(); got != "options / max_num_levels: must be non-negative, got -1" {
		t.Errorf("unexpected error text: %q", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.txt")

	if err := WriteFileAtomic(path, []byte("first")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if b, err := os.ReadFile(path); err != nil || string(b) != "first" {
		t.Fatalf("got %q, %v", b, err)
	}

	// A second write should replace the file in one atomic step and leave
	// no stray ".next" file behind.
	if err := WriteFileAtomic(path, []byte("second")); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if b, err := os.ReadFile(path); err != nil || string(b) != "second" {
		t.Fatalf("got %q, %v", b, err)
	}
	if _, err := os.Stat(path + ".next"); !os.IsNotExist(err) {
		t.Errorf("expected no leftover .next file, stat returned err=%v", err)
	}
}
