// Package track defines the immutable track metadata value passed between
// the playlist sequencer and the playback engine.
package track

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Track is a single audio file with its metadata. It is constructed once by
// a scanning collaborator and never mutated afterwards; the engine and the
// sequencer only read from it.
type Track struct {
	Path        string  `json:"path"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist"`
	Album       string  `json:"album"`
	Duration    float64 `json:"duration"` // seconds
	TrackNumber int     `json:"track_number,omitempty"`
	Year        int     `json:"year,omitempty"`
	Genre       string  `json:"genre,omitempty"`
	Bitrate     int     `json:"bitrate,omitempty"`
	SampleRate  int     `json:"sample_rate,omitempty"`
	Channels    int     `json:"channels,omitempty"`
}

// FromPath builds a Track by parsing the filename. "Artist - Title" names
// are split; anything else becomes the title as-is.
func FromPath(path string) Track {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	parts := strings.SplitN(name, " - ", 2)
	if len(parts) == 2 {
		return Track{
			Path:   path,
			Artist: strings.TrimSpace(parts[0]),
			Title:  strings.TrimSpace(parts[1]),
		}
	}
	return Track{Path: path, Title: name}
}

// Filename returns the base name of the track's file.
func (t Track) Filename() string {
	return filepath.Base(t.Path)
}

// Extension returns the lowercased file extension, including the dot.
func (t Track) Extension() string {
	return strings.ToLower(filepath.Ext(t.Path))
}

// DisplayName returns "Artist - Title", or just the title when the artist
// is unknown.
func (t Track) DisplayName() string {
	if t.Artist != "" {
		return t.Artist + " - " + t.Title
	}
	return t.Title
}

// FormatDuration renders the duration as MM:SS.
func (t Track) FormatDuration() string {
	total := int(t.Duration)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func (t Track) String() string {
	return t.DisplayName()
}
