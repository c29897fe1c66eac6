package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog/log"
)

// decodeBatch is how many frames are pulled from the decoder per iteration
// while loading a file into memory.
const decodeBatch = 4096

// decodeFile decodes an audio file fully into an in-memory sample buffer.
// The format is picked by file extension: MP3, WAV, FLAC and OGG are
// supported.
func decodeFile(path string) ([][2]float64, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open %s: %w", path, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	defer streamer.Close()

	samples := make([][2]float64, 0, streamer.Len())
	batch := make([][2]float64, decodeBatch)
	for {
		n, ok := streamer.Stream(batch)
		samples = append(samples, batch[:n]...)
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}

	log.Debug().
		Str("path", path).
		Int("samples", len(samples)).
		Int("sampleRate", int(format.SampleRate)).
		Int("channels", format.NumChannels).
		Msg("Track decoded")

	return samples, format, nil
}
