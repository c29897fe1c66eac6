package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mukerapp/muker/internal/playlist"
	"github.com/mukerapp/muker/internal/track"
)

func testState(name string) playlist.State {
	return playlist.State{
		Name: name,
		Tracks: []track.Track{
			{Path: "/music/a.mp3", Title: "A", Artist: "X", Duration: 120},
			{Path: "/music/b.flac", Title: "B", Duration: 240},
		},
		Shuffle: true,
		Repeat:  playlist.RepeatAll,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	if err := store.SavePlaylist(testState("favorites")); err != nil {
		t.Fatalf("SavePlaylist: %v", err)
	}

	loaded, err := store.LoadPlaylist("favorites")
	if err != nil {
		t.Fatalf("LoadPlaylist: %v", err)
	}

	if loaded.Name != "favorites" {
		t.Errorf("Name = %q, want favorites", loaded.Name)
	}
	if len(loaded.Tracks) != 2 {
		t.Fatalf("Tracks = %d, want 2", len(loaded.Tracks))
	}
	if loaded.Tracks[0].Path != "/music/a.mp3" {
		t.Errorf("track 0 path = %q", loaded.Tracks[0].Path)
	}
	if !loaded.Shuffle {
		t.Error("Shuffle not preserved")
	}
	if loaded.Repeat != playlist.RepeatAll {
		t.Errorf("Repeat = %v, want All", loaded.Repeat)
	}
}

func TestSaveRequiresName(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	if err := store.SavePlaylist(playlist.State{}); err == nil {
		t.Error("SavePlaylist with an empty name should fail")
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	st := testState("mix")
	if err := store.SavePlaylist(st); err != nil {
		t.Fatal(err)
	}
	st.Tracks = st.Tracks[:1]
	if err := store.SavePlaylist(st); err != nil {
		t.Fatal(err)
	}

	loaded, err := store.LoadPlaylist("mix")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Tracks) != 1 {
		t.Errorf("Tracks = %d after overwrite, want 1", len(loaded.Tracks))
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewStoreAt(dir)

	if err := store.SavePlaylist(testState("clean")); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, PlaylistSubdir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("playlist dir contains %v, want exactly one file", names)
	}
}

func TestLoadMissingPlaylist(t *testing.T) {
	store := NewStoreAt(t.TempDir())
	if _, err := store.LoadPlaylist("nothing"); err == nil {
		t.Error("LoadPlaylist of a missing file should fail")
	}
}

func TestLoadCorruptPlaylist(t *testing.T) {
	dir := t.TempDir()
	store := NewStoreAt(dir)

	if err := os.MkdirAll(filepath.Join(dir, PlaylistSubdir), 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, PlaylistSubdir, "broken.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.LoadPlaylist("broken"); err == nil {
		t.Error("LoadPlaylist of corrupt JSON should fail")
	}
}

func TestListPlaylists(t *testing.T) {
	store := NewStoreAt(t.TempDir())

	names, err := store.ListPlaylists()
	if err != nil {
		t.Fatalf("ListPlaylists on empty store: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want empty", names)
	}

	for _, name := range []string{"zeta", "alpha"} {
		if err := store.SavePlaylist(testState(name)); err != nil {
			t.Fatal(err)
		}
	}

	names, err = store.ListPlaylists()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("names = %v, want [alpha zeta]", names)
	}
}

func TestSanitizedNamesStayInDirectory(t *testing.T) {
	dir := t.TempDir()
	store := NewStoreAt(dir)

	st := testState("../escape")
	if err := store.SavePlaylist(st); err != nil {
		t.Fatalf("SavePlaylist: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, PlaylistSubdir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("playlist dir has %d entries, want 1", len(entries))
	}
	if _, err := store.LoadPlaylist("../escape"); err != nil {
		t.Errorf("round trip with sanitized name failed: %v", err)
	}
}
