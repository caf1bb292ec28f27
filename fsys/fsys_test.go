package fsys

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOSUnrestricted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")

	fs := NewOS()

	if err := fs.WriteFile(path, []byte("hello world")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("expected 'hello world', got %q", data)
	}
}

func TestOSReadMissing(t *testing.T) {
	fs := NewOS()

	_, err := fs.ReadFile(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestOSReadOnlyRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("original"), 0644)

	fs := NewOS(WithRoots(Root{Path: dir, Mode: ReadOnly}))

	data, err := fs.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("expected 'original', got %q", data)
	}

	if err := fs.WriteFile(path, []byte("modified")); !errors.Is(err, ErrPermission) {
		t.Errorf("expected write to fail on read-only root, got %v", err)
	}
	if err := fs.Remove(path); !errors.Is(err, ErrPermission) {
		t.Errorf("expected remove to fail on read-only root, got %v", err)
	}
}

func TestOSReadWriteRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	os.WriteFile(path, []byte("original"), 0644)

	fs := NewOS(WithRoots(Root{Path: dir, Mode: ReadWrite}))

	if err := fs.WriteFile(path, []byte("modified")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "modified" {
		t.Errorf("expected 'modified', got %q", content)
	}

	if err := fs.WriteFile(filepath.Join(dir, "new.txt"), []byte("new")); !errors.Is(err, ErrPermission) {
		t.Errorf("expected creating a new file to fail on ReadWrite, got %v", err)
	}
}

func TestOSReadWriteCreateRoot(t *testing.T) {
	dir := t.TempDir()

	fs := NewOS(WithRoots(Root{Path: dir, Mode: ReadWriteCreate}))

	sub := filepath.Join(dir, "subdir")
	if err := fs.MkdirAll(sub); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := fs.WriteFile(filepath.Join(sub, "new.txt"), []byte("created")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	content, _ := os.ReadFile(filepath.Join(sub, "new.txt"))
	if string(content) != "created" {
		t.Errorf("expected 'created', got %q", content)
	}

	if err := fs.Rename(filepath.Join(sub, "new.txt"), filepath.Join(sub, "moved.txt")); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if ok, _ := fs.Exists(filepath.Join(sub, "moved.txt")); !ok {
		t.Error("expected renamed file to exist")
	}
}

func TestOSPathTraversalBlocked(t *testing.T) {
	dir := t.TempDir()
	parentFile := filepath.Join(filepath.Dir(dir), "secret.txt")
	os.WriteFile(parentFile, []byte("secret"), 0644)
	defer os.Remove(parentFile)

	fs := NewOS(WithRoots(Root{Path: dir, Mode: ReadOnly}))

	if _, err := fs.ReadFile(filepath.Join(dir, "..", "secret.txt")); !errors.Is(err, ErrPermission) {
		t.Errorf("expected path traversal to be blocked, got %v", err)
	}
}

func TestOSSiblingPrefixBlocked(t *testing.T) {
	base := t.TempDir()
	allowed := filepath.Join(base, "data")
	sibling := filepath.Join(base, "data-other")
	os.MkdirAll(allowed, 0755)
	os.MkdirAll(sibling, 0755)
	os.WriteFile(filepath.Join(sibling, "x.txt"), []byte("x"), 0644)

	fs := NewOS(WithRoots(Root{Path: allowed, Mode: ReadOnly}))

	if _, err := fs.ReadFile(filepath.Join(sibling, "x.txt")); !errors.Is(err, ErrPermission) {
		t.Errorf("expected sibling directory to be outside the root, got %v", err)
	}
}

func TestOSExists(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "exists.txt"), []byte(""), 0644)

	fs := NewOS(WithRoots(Root{Path: dir, Mode: ReadOnly}))

	if ok, _ := fs.Exists(filepath.Join(dir, "exists.txt")); !ok {
		t.Error("expected file to exist")
	}
	if ok, _ := fs.Exists(filepath.Join(dir, "nope.txt")); ok {
		t.Error("expected file to not exist")
	}
	if ok, err := fs.Exists("/etc/passwd"); ok || err != nil {
		t.Errorf("expected path outside roots to not exist, got %v, %v", ok, err)
	}
}

func TestOSSizeLimits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0644)

	fs := NewOS(WithMaxFileSize(10), WithMaxWriteSize(10))

	if _, err := fs.ReadFile(path); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge on read, got %v", err)
	}
	if err := fs.WriteFile(filepath.Join(dir, "out.txt"), []byte(strings.Repeat("y", 11))); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge on write, got %v", err)
	}
	if err := fs.WriteFile(filepath.Join(dir, "ok.txt"), []byte("0123456789")); err != nil {
		t.Errorf("expected write at the limit to succeed, got %v", err)
	}
}

func TestOSPathTooLong(t *testing.T) {
	fs := NewOS(WithMaxPathLength(16))

	_, err := fs.ReadFile("/" + strings.Repeat("a", 32))
	if !errors.Is(err, ErrPathTooLong) {
		t.Errorf("expected ErrPathTooLong, got %v", err)
	}
}

func TestOSInvalidRootDeniesAll(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	os.WriteFile(path, []byte("hello"), 0644)

	fs := NewOS(WithRoots(Root{Path: dir, Mode: ReadWriteCreate}, Root{Path: ""}))
	if fs.Err() == nil {
		t.Fatal("expected an error for the empty root")
	}

	if _, err := fs.ReadFile(path); !errors.Is(err, ErrPermission) {
		t.Errorf("expected read to be denied, got %v", err)
	}
	if err := fs.WriteFile(filepath.Join(dir, "new.txt"), []byte("x")); !errors.Is(err, ErrPermission) {
		t.Errorf("expected write to be denied, got %v", err)
	}
	if ok, err := fs.Exists(path); ok || err != nil {
		t.Errorf("expected exists=false, got %v, %v", ok, err)
	}
}
