package library

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitChange(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("no library change observed")
		return Change{}
	}
}

func TestWatcherObservesAudioFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := Watch(dir)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	path := filepath.Join(dir, "new.mp3")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	c := waitChange(t, w.Changes())
	if c.Kind != FileAdded || c.Path != path {
		t.Errorf("change = %+v, want added %q", c, path)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	c = waitChange(t, w.Changes())
	if c.Kind != FileRemoved || c.Path != path {
		t.Errorf("change = %+v, want removed %q", c, path)
	}
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()

	w, err := Watch(dir)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-w.Changes():
		t.Errorf("unexpected change for unsupported file: %+v", c)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherCloseEndsChanges(t *testing.T) {
	w, err := Watch(t.TempDir())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	if _, ok := <-w.Changes(); ok {
		t.Error("Changes should be closed after Close")
	}
}

func TestWatchMissingDirectory(t *testing.T) {
	if _, err := Watch(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Error("Watch of a missing directory should fail")
	}
}
