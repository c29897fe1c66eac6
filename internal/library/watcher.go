package library

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// ChangeKind describes what happened to a watched audio file.
type ChangeKind int

const (
	// FileAdded means a supported audio file appeared.
	FileAdded ChangeKind = iota
	// FileRemoved means a supported audio file was deleted or renamed away.
	FileRemoved
)

// Change is one library mutation observed on disk.
type Change struct {
	Kind ChangeKind
	Path string
}

// Watcher reports added and removed audio files under a set of directories,
// so the caller can rescan or patch the playlist.
type Watcher struct {
	fsw     *fsnotify.Watcher
	changes chan Change
	done    chan struct{}
}

// Watch starts watching the given directories. Non-directory paths are
// ignored by fsnotify itself.
func Watch(dirs ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	w := &Watcher{
		fsw:     fsw,
		changes: make(chan Change, 16),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes is the stream of observed audio-file changes. Closed by Close.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Close stops watching and closes the change channel.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	defer close(w.changes)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !IsSupported(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				w.emit(Change{Kind: FileAdded, Path: event.Name})
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				w.emit(Change{Kind: FileRemoved, Path: event.Name})
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("Library watcher error")
		}
	}
}

// emit drops changes when the consumer lags; the caller rescans anyway.
func (w *Watcher) emit(c Change) {
	select {
	case w.changes <- c:
	default:
		log.Debug().Str("path", c.Path).Msg("Library change dropped, consumer busy")
	}
}
