package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestMemoryFileSystemRoundTrip(t *testing.T) {
	m := NewMemoryFileSystem()

	if m.Exists("data/scan.csv") {
		t.Fatal("file should not exist before write")
	}

	if err := m.WriteFile("data/scan.csv", []byte("depth,p0\n1.0,10\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := m.ReadFile("data/scan.csv")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "depth,p0\n1.0,10\n" {
		t.Errorf("ReadFile = %q", got)
	}

	f, err := m.Open("data/scan.csv")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	all, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(all) != string(got) {
		t.Errorf("Open contents differ from ReadFile")
	}

	info, err := m.Stat("data/scan.csv")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != int64(len(got)) {
		t.Errorf("Size = %d, want %d", info.Size(), len(got))
	}
}

func TestMemoryFileSystemMissingFile(t *testing.T) {
	m := NewMemoryFileSystem()

	if _, err := m.Open("nope.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open missing = %v, want fs.ErrNotExist", err)
	}
	if _, err := m.ReadFile("nope.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile missing = %v, want fs.ErrNotExist", err)
	}
	if _, err := m.Stat("nope.csv"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat missing = %v, want fs.ErrNotExist", err)
	}
}

func TestMemoryFileSystemMkdirAll(t *testing.T) {
	m := NewMemoryFileSystem()

	if err := m.MkdirAll("a/b/c", 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	for _, dir := range []string{"a", "a/b", "a/b/c"} {
		if !m.Exists(dir) {
			t.Errorf("dir %q should exist", dir)
		}
	}
}

func TestOSFileSystem(t *testing.T) {
	osfs := OSFileSystem{}
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "f.txt")

	if err := osfs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := osfs.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if !osfs.Exists(path) {
		t.Error("Exists = false after write")
	}
	got, err := osfs.ReadFile(path)
	if err != nil || string(got) != "x" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}
}
