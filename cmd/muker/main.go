package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mukerapp/muker/internal/config"
	"github.com/mukerapp/muker/internal/engine"
	"github.com/mukerapp/muker/internal/library"
	"github.com/mukerapp/muker/internal/pcm"
	"github.com/mukerapp/muker/internal/playlist"
	"github.com/mukerapp/muker/internal/storage"
	"github.com/mukerapp/muker/internal/ui"
	"github.com/mukerapp/muker/internal/viz"
)

var (
	versionFlag  = flag.Bool("version", false, "Show version information")
	debugFlag    = flag.Bool("debug", false, "Enable debug logging")
	shuffleFlag  = flag.Bool("shuffle", false, "Start with shuffle enabled")
	playlistFlag = flag.String("playlist", "", "Load a saved playlist by name")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s v%s - %s\n\n", config.AppName, config.AppVersion, config.AppDescription)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] [file|directory ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		fmt.Println(config.AppDescription)
		os.Exit(0)
	}

	setupLogging(*debugFlag)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	if !debug {
		// Avoid TUI corruption: drop everything below error level
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		if devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0644); err == nil {
			log.Logger = log.Output(devNull)
		}
		return
	}

	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	dataDir, err := storage.GetDataDir()
	if err != nil {
		dataDir = os.TempDir()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log dir: %v\n", err)
	}
	logPath := filepath.Join(dataDir, "debug.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log file: %v\n", err)
		logFile = os.Stderr
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: logFile, TimeFormat: "15:04:05"})
	fmt.Printf("Debug log: %s\n", logPath)
	log.Info().Msgf("Starting %s v%s (debug mode)", config.AppName, config.AppVersion)
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}

	store, err := storage.NewStore()
	if err != nil {
		return err
	}

	seq := playlist.New()

	if *playlistFlag != "" {
		st, err := store.LoadPlaylist(*playlistFlag)
		if err != nil {
			return err
		}
		seq.LoadState(st)
	}

	paths := flag.Args()
	if len(paths) == 0 && *playlistFlag == "" {
		paths = cfg.MusicDirs
	}
	if len(paths) > 0 {
		tracks, err := library.Scan(paths...)
		if err != nil {
			return err
		}
		seq.AddMany(tracks)
	}

	if seq.Len() == 0 {
		return fmt.Errorf("no audio files found; pass files or directories, or set music_dirs in the config")
	}

	if *shuffleFlag && !seq.Shuffled() {
		seq.ToggleShuffle()
	}

	bridge := pcm.NewBridge(pcm.DefaultCapacity)
	eng := engine.New(bridge)
	analyzer := viz.NewAnalyzer(cfg.FFTSize, cfg.SpectrumBins, cfg.WaveformSamples)

	app := ui.New(eng, seq, analyzer, cfg)

	if dirs := watchableDirs(paths); len(dirs) > 0 {
		watcher, err := library.Watch(dirs...)
		if err != nil {
			log.Warn().Err(err).Msg("Library watching disabled")
		} else {
			defer watcher.Close()
			app.WatchLibrary(watcher.Changes())
		}
	}

	if err := app.Run(); err != nil {
		return err
	}

	// Persist the session so the next run can pick up where this one ended.
	if err := store.SavePlaylist(seq.State("last")); err != nil {
		log.Warn().Err(err).Msg("Failed to save session playlist")
	}
	return nil
}

func watchableDirs(paths []string) []string {
	var dirs []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			dirs = append(dirs, p)
		}
	}
	return dirs
}
