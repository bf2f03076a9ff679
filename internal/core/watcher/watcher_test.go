package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir, _ := os.MkdirTemp("", "watchertest")
	defer os.RemoveAll(tmpDir)

	changedFiles := make(chan []string, 1)
	w, err := NewWatcher(100*time.Millisecond, []string{"exclude_dir"}, []string{"*.exclude"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	err = w.Watch([]string{tmpDir})
	if err != nil {
		t.Fatal(err)
	}

	// Create a file
	testFile := filepath.Join(tmpDir, "Test.java")
	os.WriteFile(testFile, []byte("class Test {}"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// Test exclusion
	excludeFile := filepath.Join(tmpDir, "test.exclude")
	os.WriteFile(excludeFile, []byte("exclude me"), 0644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if filepath.Base(p) == "test.exclude" {
				t.Error("Excluded file triggered event")
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "Nested.java")
	if err := os.WriteFile(subFile, []byte("class Nested {}"), 0644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "watcher-rename")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "Old.java")
	newPath := filepath.Join(tmpDir, "New.java")
	if err := os.WriteFile(oldPath, []byte("class Test {}"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_ExtensionFilters(t *testing.T) {
	w, err := NewWatcher(10*time.Millisecond, nil, []string{"*Generated.java"}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for _, name := range []string{"A.java", "B.jribble", "C.JRIBBLEBIN"} {
		if w.shouldExcludeFile(name) {
			t.Fatalf("expected %s to count as a source change", name)
		}
	}
	if !w.shouldExcludeFile("notes.txt") {
		t.Fatal("expected non-source files to be excluded")
	}
	if !w.shouldExcludeFile("FooGenerated.java") {
		t.Fatal("expected exclude_files patterns to apply")
	}

	w.SetExtensions([]string{".jribble"})
	if !w.shouldExcludeFile("A.java") {
		t.Fatal("expected .java to be excluded once only .jribble is enabled")
	}
}

func TestWatcher_BurstIsDebouncedAndSorted(t *testing.T) {
	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(30*time.Millisecond, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	w.scheduleChange("b/B.java")
	w.scheduleChange("a/A.java")
	w.scheduleChange("b/B.java")

	select {
	case paths := <-changedFiles:
		if len(paths) != 2 || paths[0] != "a/A.java" || paths[1] != "b/B.java" {
			t.Fatalf("expected one sorted burst, got %v", paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced burst")
	}

	select {
	case paths := <-changedFiles:
		t.Fatalf("unexpected second burst %v", paths)
	case <-time.After(100 * time.Millisecond):
	}
}
