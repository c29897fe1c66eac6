// Package library discovers audio files on disk and feeds them to the
// playlist as tracks.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mukerapp/muker/internal/track"
)

// supportedExtensions are the decodable audio formats.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
}

// IsSupported reports whether the path has a decodable audio extension.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Scan walks the given paths (files or directories) and returns tracks for
// every supported audio file, sorted by path. Unsupported files are skipped
// silently; unreadable directories abort the scan.
func Scan(paths ...string) ([]track.Track, error) {
	var tracks []track.Track

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}

		if !info.IsDir() {
			if IsSupported(root) {
				tracks = append(tracks, track.FromPath(root))
			}
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && IsSupported(path) {
				tracks = append(tracks, track.FromPath(path))
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Path < tracks[j].Path })

	log.Debug().Int("tracks", len(tracks)).Strs("paths", paths).Msg("Library scan complete")
	return tracks, nil
}
