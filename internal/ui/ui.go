// Package ui implements the tview terminal interface: playlist panel,
// transport line, and the visualization poller that feeds PCM snapshots to
// the analyzer at a fixed rate.
package ui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"

	"github.com/mukerapp/muker/internal/config"
	"github.com/mukerapp/muker/internal/engine"
	"github.com/mukerapp/muker/internal/library"
	"github.com/mukerapp/muker/internal/playlist"
	"github.com/mukerapp/muker/internal/track"
	"github.com/mukerapp/muker/internal/viz"
)

const (
	// VolumeStep is the volume change per keypress.
	VolumeStep = 0.05
	// SeekStep is the seek distance per keypress in seconds.
	SeekStep = 5.0
)

// UI wires the playback engine, the sequencer, and the analyzer into a
// tview application. All playlist navigation happens on the UI event queue;
// the engine's notifications are scheduled onto it via SetNotifier.
type UI struct {
	app       *tview.Application
	engine    *engine.Engine
	sequencer *playlist.Sequencer
	analyzer  *viz.Analyzer
	cfg       *config.Config

	trackList  *tview.List
	nowPlaying *tview.TextView
	visualizer *tview.TextView
	statusLine *tview.TextView

	stopUpdates chan struct{}
}

// New creates the UI. The engine's volume is set from config.
func New(eng *engine.Engine, seq *playlist.Sequencer, an *viz.Analyzer, cfg *config.Config) *UI {
	eng.SetVolume(cfg.Volume)

	return &UI{
		app:         tview.NewApplication(),
		engine:      eng,
		sequencer:   seq,
		analyzer:    an,
		cfg:         cfg,
		stopUpdates: make(chan struct{}),
	}
}

// Run builds the layout, hooks up the engine notifications, starts the
// visualization poller, and blocks until the application exits.
func (ui *UI) Run() error {
	ui.setupLayout()

	ui.engine.SetNotifier(func(fn func()) {
		go ui.app.QueueUpdateDraw(fn)
	})
	ui.engine.SetOnTrackEnd(ui.onTrackEnd)
	ui.engine.SetOnError(ui.onError)

	ui.app.SetInputCapture(ui.inputHandler)

	go ui.pollVisualization()
	defer close(ui.stopUpdates)

	if ui.cfg.Autoplay && ui.sequencer.Len() > 0 {
		ui.playCurrent()
	}

	return ui.app.Run()
}

func (ui *UI) setupLayout() {
	ui.trackList = tview.NewList().ShowSecondaryText(false)
	ui.trackList.SetBorder(true).SetTitle(" Playlist ")
	ui.trackList.SetSelectedFunc(func(index int, _, _ string, _ rune) {
		ui.sequencer.SetCurrent(index)
		ui.playCurrent()
	})

	ui.nowPlaying = tview.NewTextView().SetDynamicColors(true)
	ui.nowPlaying.SetBorder(true).SetTitle(" Now Playing ")

	ui.visualizer = tview.NewTextView().SetDynamicColors(true)
	ui.visualizer.SetBorder(true).SetTitle(" Spectrum ")

	ui.statusLine = tview.NewTextView().SetDynamicColors(true)

	ui.refreshTrackList()

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.nowPlaying, 5, 0, false).
		AddItem(ui.visualizer, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(tview.NewFlex().
			AddItem(ui.trackList, 0, 1, true).
			AddItem(right, 0, 2, false), 0, 1, true).
		AddItem(ui.statusLine, 1, 0, false)

	ui.app.SetRoot(root, true)
}

func (ui *UI) refreshTrackList() {
	selected := ui.sequencer.Index()
	ui.trackList.Clear()
	for _, t := range ui.sequencer.Tracks() {
		ui.trackList.AddItem(t.DisplayName(), "", 0, nil)
	}
	if selected >= 0 {
		ui.trackList.SetCurrentItem(selected)
	}
}

// pollVisualization pulls PCM snapshots at the configured rate and pushes
// rendered frames onto the UI queue. The snapshot is mono: the bridge
// collapses channels before the window ever reaches us.
func (ui *UI) pollVisualization() {
	interval := time.Second / time.Duration(ui.cfg.VisualizerFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ui.stopUpdates:
			return
		case <-ticker.C:
			window := ui.engine.PCMSnapshot()
			frame := ui.analyzer.Process(window, 1)
			ui.app.QueueUpdateDraw(func() {
				ui.renderFrame(frame)
				ui.renderStatus()
			})
		}
	}
}

func (ui *UI) renderFrame(frame viz.Frame) {
	_, _, width, height := ui.visualizer.GetInnerRect()
	ui.visualizer.SetText(
		RenderSpectrum(frame.Spectrum, width, height-2) + "\n" +
			RenderVU(frame.VULeft, frame.VURight, width))
}

func (ui *UI) renderStatus() {
	state := ui.engine.GetState()
	position := ui.engine.Position()
	duration := ui.engine.Duration()

	title := "-"
	if t, ok := ui.engine.CurrentTrack(); ok {
		title = t.DisplayName()
	}
	ui.nowPlaying.SetText(fmt.Sprintf("[::b]%s[-:-:-]\n%s / %s  %s",
		tview.Escape(title),
		FormatTime(position), FormatTime(duration),
		RenderProgress(ui.engine.Progress(), 30)))

	ui.statusLine.SetText(fmt.Sprintf(" %s  vol %3.0f%%  shuffle %-3s  repeat %-3s  [space] play/pause  [n/p] next/prev  [s]huffle  [r]epeat  [q]uit",
		state,
		ui.engine.Volume()*100,
		onOff(ui.sequencer.Shuffled()),
		ui.sequencer.Repeat()))
}

func (ui *UI) inputHandler(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		ui.quit()
		return nil
	case tcell.KeyLeft:
		ui.engine.Seek(ui.engine.Position() - SeekStep)
		return nil
	case tcell.KeyRight:
		ui.engine.Seek(ui.engine.Position() + SeekStep)
		return nil
	}

	switch event.Rune() {
	case ' ':
		ui.togglePlayback()
	case 'n':
		ui.advance(ui.sequencer.Next)
	case 'p':
		ui.advance(ui.sequencer.Previous)
	case 's':
		ui.sequencer.ToggleShuffle()
		ui.refreshTrackList()
	case 'r':
		ui.sequencer.ToggleRepeat()
	case '+', '=':
		ui.engine.SetVolume(ui.engine.Volume() + VolumeStep)
	case '-':
		ui.engine.SetVolume(ui.engine.Volume() - VolumeStep)
	case 'x':
		ui.engine.Stop()
	case 'q':
		ui.quit()
	default:
		return event
	}
	return nil
}

func (ui *UI) togglePlayback() {
	switch {
	case ui.engine.IsPlaying():
		ui.engine.Pause()
	case ui.engine.IsPaused():
		ui.engine.Play()
	default:
		ui.playCurrent()
	}
}

func (ui *UI) advance(step func() (track.Track, bool)) {
	if _, ok := step(); ok {
		ui.playCurrent()
	} else {
		ui.engine.Stop()
	}
	ui.refreshTrackList()
}

func (ui *UI) playCurrent() {
	t, ok := ui.sequencer.Current()
	if !ok {
		return
	}
	if err := ui.engine.Load(t); err != nil {
		log.Warn().Err(err).Str("track", t.Path).Msg("Skipping undecodable track")
		return
	}
	ui.engine.Play()
	ui.refreshTrackList()
}

// onTrackEnd runs on the UI queue: the engine never navigates the playlist
// itself.
func (ui *UI) onTrackEnd() {
	if _, ok := ui.sequencer.Next(); ok {
		ui.playCurrent()
	}
	ui.refreshTrackList()
}

func (ui *UI) onError(err *engine.Error) {
	ui.statusLine.SetText(fmt.Sprintf(" [red]%s error:[-] %s", err.Kind, tview.Escape(err.Message)))
}

// WatchLibrary applies library changes to the playlist on the UI queue.
// Call before Run.
func (ui *UI) WatchLibrary(changes <-chan library.Change) {
	go func() {
		for c := range changes {
			ui.app.QueueUpdateDraw(func() {
				ui.applyLibraryChange(c)
			})
		}
	}()
}

func (ui *UI) applyLibraryChange(c library.Change) {
	switch c.Kind {
	case library.FileAdded:
		ui.sequencer.Add(track.FromPath(c.Path))
	case library.FileRemoved:
		for i, t := range ui.sequencer.Tracks() {
			if t.Path == c.Path {
				ui.sequencer.Remove(i)
				break
			}
		}
	}
	ui.refreshTrackList()
}

func (ui *UI) quit() {
	ui.cfg.Volume = ui.engine.Volume()
	if err := ui.cfg.Save(); err != nil {
		log.Warn().Err(err).Msg("Failed to save config")
	}
	ui.engine.Close()
	ui.app.Stop()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
