package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"lightbox/internal/fileutil"
	"lightbox/internal/testsupport"
)

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.jpg")
	testsupport.WriteFile(t, path)

	if !fileutil.IsRegularFile(path) {
		t.Fatalf("expected %s to be a regular file", path)
	}
	if fileutil.IsRegularFile(dir) {
		t.Fatal("directories are not regular files")
	}
	if fileutil.IsRegularFile(filepath.Join(dir, "missing.jpg")) {
		t.Fatal("missing paths are not regular files")
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	if err := fileutil.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected directory at %s: %v", dir, err)
	}
	if err := fileutil.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir on existing directory failed: %v", err)
	}
}
