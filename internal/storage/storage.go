// Package storage persists playlists to the per-user data directory.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mukerapp/muker/internal/playlist"
)

const (
	// AppName is used for the data directory name.
	AppName = "muker"
	// PlaylistSubdir is the subdirectory holding saved playlists.
	PlaylistSubdir = "playlists"
	// playlistExt is the on-disk playlist file extension.
	playlistExt = ".json"
)

// Store reads and writes playlist files under a base directory.
type Store struct {
	baseDir string
}

// NewStore creates a Store rooted at the platform data directory.
func NewStore() (*Store, error) {
	dir, err := GetDataDir()
	if err != nil {
		return nil, err
	}
	return &Store{baseDir: dir}, nil
}

// NewStoreAt creates a Store rooted at an explicit directory.
func NewStoreAt(dir string) *Store {
	return &Store{baseDir: dir}
}

// GetDataDir returns the platform-specific data directory for the
// application.
func GetDataDir() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(userConfigDir, AppName), nil
}

func (s *Store) playlistPath(name string) string {
	return filepath.Join(s.baseDir, PlaylistSubdir, sanitizeName(name)+playlistExt)
}

// SavePlaylist writes the playlist state as JSON, atomically via temp file
// and rename.
func (s *Store) SavePlaylist(st playlist.State) error {
	if st.Name == "" {
		return fmt.Errorf("playlist name is empty")
	}

	dir := filepath.Join(s.baseDir, PlaylistSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create playlist directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal playlist: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".playlist-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	final := s.playlistPath(st.Name)
	if err := os.Rename(tmpPath, final); err != nil {
		return fmt.Errorf("failed to rename playlist file: %w", err)
	}
	tmpPath = "" // Prevent defer from removing the final file

	log.Debug().Str("playlist", st.Name).Str("path", final).Int("tracks", len(st.Tracks)).Msg("Playlist saved")
	return nil
}

// LoadPlaylist reads a saved playlist state by name.
func (s *Store) LoadPlaylist(name string) (playlist.State, error) {
	data, err := os.ReadFile(s.playlistPath(name))
	if err != nil {
		return playlist.State{}, fmt.Errorf("failed to read playlist %q: %w", name, err)
	}

	var st playlist.State
	if err := json.Unmarshal(data, &st); err != nil {
		return playlist.State{}, fmt.Errorf("failed to parse playlist %q: %w", name, err)
	}
	if st.Name == "" {
		st.Name = name
	}
	return st, nil
}

// ListPlaylists returns the names of all saved playlists, sorted.
func (s *Store) ListPlaylists() ([]string, error) {
	dir := filepath.Join(s.baseDir, PlaylistSubdir)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), playlistExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), playlistExt))
	}
	sort.Strings(names)
	return names, nil
}

// sanitizeName strips path separators so playlist names stay inside the
// playlist directory.
func sanitizeName(name string) string {
	name = strings.ReplaceAll(name, string(os.PathSeparator), "-")
	return strings.ReplaceAll(name, "/", "-")
}
