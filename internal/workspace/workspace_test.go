package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_CreateAndCleanup(t *testing.T) {
	tempBase := t.TempDir()
	mgr := NewManager(tempBase, "publish", nil)

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	wsPath := mgr.Path()
	if wsPath == "" {
		t.Fatal("Path() returned empty string")
	}
	if filepath.Dir(wsPath) != tempBase {
		t.Errorf("workspace %s not under %s", wsPath, tempBase)
	}
	if !strings.HasPrefix(filepath.Base(wsPath), "bookbuilder-publish-") {
		t.Errorf("Expected prefixed directory, got: %s", wsPath)
	}
	if _, err := os.Stat(wsPath); err != nil {
		t.Errorf("Workspace directory does not exist: %v", err)
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("Workspace directory still exists after cleanup: %s", wsPath)
	}
	if err := mgr.Cleanup(); err != nil {
		t.Errorf("second Cleanup() failed: %v", err)
	}
}

func TestManager_UniquePaths(t *testing.T) {
	tempBase := t.TempDir()
	a := NewManager(tempBase, "", nil)
	b := NewManager(tempBase, "", nil)
	if err := a.Create(); err != nil {
		t.Fatal(err)
	}
	if err := b.Create(); err != nil {
		t.Fatal(err)
	}
	if a.Path() == b.Path() {
		t.Errorf("managers share path %s", a.Path())
	}
}

func TestManager_Subdir(t *testing.T) {
	mgr := NewManager(t.TempDir(), "", nil)
	if _, err := mgr.Subdir("site"); !errors.Is(err, ErrNotCreated) {
		t.Fatalf("expected ErrNotCreated, got %v", err)
	}

	if err := mgr.Create(); err != nil {
		t.Fatal(err)
	}
	sub, err := mgr.Subdir("site")
	if err != nil {
		t.Fatalf("Subdir() failed: %v", err)
	}
	if info, err := os.Stat(sub); err != nil || !info.IsDir() {
		t.Errorf("subdir not created: %v", err)
	}
}

func TestCopyTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	mustWrite := func(rel, content string, mode os.FileMode) {
		t.Helper()
		path := filepath.Join(src, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("index.html", "<html></html>", 0o644)
	mustWrite("gitbook/style.css", "body{}", 0o644)
	mustWrite("run.sh", "#!/bin/sh\n", 0o755)
	mustWrite(".git/HEAD", "ref: refs/heads/main\n", 0o644)
	if err := os.Symlink("index.html", filepath.Join(src, "home.html")); err != nil {
		t.Fatal(err)
	}

	files, err := CopyTree(src, dst, ".git")
	if err != nil {
		t.Fatalf("CopyTree() failed: %v", err)
	}
	if files != 3 {
		t.Errorf("copied %d files, want 3", files)
	}

	data, err := os.ReadFile(filepath.Join(dst, "gitbook", "style.css"))
	if err != nil || string(data) != "body{}" {
		t.Errorf("nested file not copied: %q %v", data, err)
	}
	info, err := os.Stat(filepath.Join(dst, "run.sh"))
	if err != nil || info.Mode().Perm()&0o100 == 0 {
		t.Errorf("executable bit lost: %v %v", info, err)
	}
	if link, err := os.Readlink(filepath.Join(dst, "home.html")); err != nil || link != "index.html" {
		t.Errorf("symlink not preserved: %q %v", link, err)
	}
	if _, err := os.Stat(filepath.Join(dst, ".git")); !os.IsNotExist(err) {
		t.Errorf("skipped entry was copied")
	}
}

func TestCopyTreeMissingSource(t *testing.T) {
	if _, err := CopyTree(filepath.Join(t.TempDir(), "missing"), t.TempDir()); err == nil {
		t.Fatal("expected error for missing source")
	}
}
