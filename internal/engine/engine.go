// Package engine owns the decode/stream lifecycle, the output device, and
// the transport state machine. One streaming goroutine per play session
// feeds fixed-size chunks to the device and mirrors them, mono-averaged,
// into the PCM bridge for visualization consumers.
package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/rs/zerolog/log"

	"github.com/mukerapp/muker/internal/pcm"
	"github.com/mukerapp/muker/internal/track"
)

const (
	// DefaultChunkSize is the number of frames streamed per iteration.
	DefaultChunkSize = 4096
	// StopJoinTimeout bounds how long Stop waits for the streaming
	// goroutine before abandoning it.
	StopJoinTimeout = time.Second
	// chunkQueueDepth is how many chunks may sit between the streaming
	// goroutine and the device; the bounded channel is what paces the
	// goroutine against real-time playback.
	chunkQueueDepth = 2
	// pauseTick is how often a paused streaming goroutine rechecks its
	// flags.
	pauseTick = 20 * time.Millisecond
)

// State is the playback lifecycle state.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
	StateEnded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateLoading:
		return "LOADING"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateEnded:
		return "ENDED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Engine is the playback engine. At most one decoded stream and one
// streaming goroutine exist per Engine at any time.
type Engine struct {
	mu        sync.Mutex
	out       Device
	devReady  bool
	devRate   beep.SampleRate
	isPlaying bool
	isPaused  bool
	volume    float64

	samples  [][2]float64
	format   beep.Format
	current  track.Track
	loaded   bool
	duration float64

	chunkSize int
	bridge    *pcm.Bridge

	// positionSamples is the frame cursor of the streaming loop; Seek
	// moves it, the loop advances it with compare-and-swap so a
	// concurrent seek is never clobbered.
	positionSamples atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}

	state     State
	lastError string
	stateMu   sync.RWMutex

	cbMu       sync.RWMutex
	onTrackEnd func()
	onError    func(*Error)
	notify     func(func())
}

// New creates an Engine backed by the process-wide speaker device.
func New(bridge *pcm.Bridge) *Engine {
	return NewWithDevice(bridge, speakerDevice{})
}

// NewWithDevice creates an Engine writing to the given output device. A nil
// bridge gets a default-capacity one.
func NewWithDevice(bridge *pcm.Bridge, out Device) *Engine {
	if bridge == nil {
		bridge = pcm.NewBridge(pcm.DefaultCapacity)
	}
	return &Engine{
		out:       out,
		volume:    1.0,
		chunkSize: DefaultChunkSize,
		bridge:    bridge,
		state:     StateIdle,
		notify:    func(fn func()) { go fn() },
	}
}

// SetOnTrackEnd registers the "track finished" listener. One slot,
// replaceable.
func (e *Engine) SetOnTrackEnd(fn func()) {
	e.cbMu.Lock()
	e.onTrackEnd = fn
	e.cbMu.Unlock()
}

// SetOnError registers the error listener. One slot, replaceable.
func (e *Engine) SetOnError(fn func(*Error)) {
	e.cbMu.Lock()
	e.onError = fn
	e.cbMu.Unlock()
}

// SetNotifier sets the execution context notifications are delivered on.
// The default spawns a goroutine; a UI passes its event-queue scheduler so
// playlist advance happens on the UI context.
func (e *Engine) SetNotifier(fn func(func())) {
	if fn == nil {
		fn = func(f func()) { go f() }
	}
	e.cbMu.Lock()
	e.notify = fn
	e.cbMu.Unlock()
}

// Load stops any current stream, decodes the track fully into memory, and
// resets the position. A failed decode moves the engine to FAILED, fires
// the error notification, and returns the error.
func (e *Engine) Load(t track.Track) error {
	e.Stop()
	e.setState(StateLoading)

	samples, format, err := decodeFile(t.Path)
	if err != nil {
		e.setState(StateFailed)
		e.reportError(newError(ErrDecode, "failed to load "+t.Path, err))
		return err
	}

	duration := t.Duration
	if duration == 0 && format.SampleRate > 0 {
		duration = float64(len(samples)) / float64(format.SampleRate)
	}

	e.mu.Lock()
	e.samples = samples
	e.format = format
	e.current = t
	e.loaded = true
	e.duration = duration
	e.isPaused = false
	e.mu.Unlock()
	e.positionSamples.Store(0)

	e.setState(StateIdle)
	log.Debug().Str("track", t.DisplayName()).Float64("duration", duration).Msg("Track loaded")
	return nil
}

// Play starts streaming the loaded track, or resumes in place when paused.
// Calling Play while already playing is a no-op.
func (e *Engine) Play() {
	e.mu.Lock()

	if !e.loaded {
		e.mu.Unlock()
		log.Debug().Msg("Play ignored: no track loaded")
		return
	}
	if e.isPlaying && !e.isPaused {
		e.mu.Unlock()
		return
	}
	if e.isPaused {
		e.isPaused = false
		e.mu.Unlock()
		e.setState(StatePlaying)
		log.Debug().Msg("Playback resumed")
		return
	}

	if err := e.ensureDeviceLocked(); err != nil {
		e.mu.Unlock()
		e.reportError(newError(ErrDevice, "audio output unavailable", err))
		return
	}

	// Replaying a track that ran to its end restarts from the top.
	if int(e.positionSamples.Load()) >= len(e.samples) {
		e.positionSamples.Store(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan [][2]float64, chunkQueueDepth)
	done := make(chan struct{})

	e.cancel = cancel
	e.done = done
	e.isPlaying = true
	e.isPaused = false
	name := e.current.DisplayName()

	e.out.Clear()
	e.out.Play(&queueStreamer{ch: ch})
	e.mu.Unlock()

	e.setState(StatePlaying)
	go e.streamLoop(ctx, ch, done)
	log.Debug().Str("track", name).Msg("Playback started")
}

// Pause suspends chunk emission. Valid only while playing; anything else is
// a no-op.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.isPlaying || e.isPaused {
		e.mu.Unlock()
		log.Debug().Msg("Pause ignored: not playing")
		return
	}
	e.isPaused = true
	e.mu.Unlock()

	e.setState(StatePaused)
	log.Debug().Msg("Playback paused")
}

// Stop signals the streaming goroutine to exit, joins it with a bounded
// timeout, resets the position, and reacquires a fresh device handle so
// device-level error states don't stick around. Valid from any state.
func (e *Engine) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	done := e.done
	e.cancel = nil
	e.done = nil
	e.isPlaying = false
	e.isPaused = false
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(StopJoinTimeout):
			log.Warn().Msg("Streaming goroutine did not exit in time, abandoning")
		}
	}

	e.positionSamples.Store(0)
	e.bridge.Reset()
	e.reacquireDevice()
	e.setState(StateIdle)
	log.Debug().Msg("Playback stopped")
}

// Seek clamps position to [0, duration] and moves the stream cursor to the
// nearest chunk boundary. Best-effort: the streaming loop picks the new
// cursor up on its next iteration.
func (e *Engine) Seek(position float64) {
	e.mu.Lock()
	duration := e.duration
	rate := e.format.SampleRate
	total := len(e.samples)
	chunk := e.chunkSize
	e.mu.Unlock()

	if position < 0 {
		position = 0
	}
	if position > duration {
		position = duration
	}

	idx := int(position * float64(rate))
	idx -= idx % chunk
	if idx > total {
		idx = total
	}
	e.positionSamples.Store(int64(idx))
}

// SetVolume clamps v to [0, 1]. The multiplier takes effect on the next
// streamed chunk.
func (e *Engine) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.mu.Lock()
	e.volume = v
	e.mu.Unlock()
}

// Volume returns the current volume multiplier.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Position returns the playback position in seconds.
func (e *Engine) Position() float64 {
	e.mu.Lock()
	rate := e.format.SampleRate
	e.mu.Unlock()
	if rate == 0 {
		return 0
	}
	return float64(e.positionSamples.Load()) / float64(rate)
}

// Duration returns the loaded track's duration in seconds.
func (e *Engine) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Progress returns position/duration, or 0 while no non-zero duration is
// established.
func (e *Engine) Progress() float64 {
	duration := e.Duration()
	if duration <= 0 {
		return 0
	}
	return e.Position() / duration
}

// PCMSnapshot returns a copy of the most recently streamed mono window.
func (e *Engine) PCMSnapshot() []float64 {
	return e.bridge.Read()
}

// Bridge exposes the PCM bridge for visualization consumers.
func (e *Engine) Bridge() *pcm.Bridge {
	return e.bridge
}

// CurrentTrack returns the loaded track, if any.
func (e *Engine) CurrentTrack() (track.Track, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current, e.loaded
}

// IsPlaying reports whether a stream session is active and not paused.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isPlaying && !e.isPaused
}

// IsPaused reports whether playback is paused. Paused implies an active
// session.
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isPaused
}

// GetState returns the lifecycle state.
func (e *Engine) GetState() State {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// GetLastError returns the most recent error message, if any.
func (e *Engine) GetLastError() string {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.lastError
}

// Close stops playback and releases the output device.
func (e *Engine) Close() {
	e.Stop()
	e.mu.Lock()
	if e.devReady {
		e.out.Close()
		e.devReady = false
	}
	e.mu.Unlock()
}

func (e *Engine) setState(state State) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state != state {
		log.Debug().Msgf("Engine state: %s -> %s", e.state, state)
		e.state = state
	}
}

// reportError records the error, fires the listener on the notification
// context, and logs it. Never called with any engine mutex held.
func (e *Engine) reportError(err *Error) {
	e.stateMu.Lock()
	e.lastError = err.Message
	e.stateMu.Unlock()

	log.Error().Err(err).Msg("Playback error")

	e.cbMu.RLock()
	cb := e.onError
	notify := e.notify
	e.cbMu.RUnlock()
	if cb != nil {
		notify(func() { cb(err) })
	}
}

// ensureDeviceLocked initializes the device for the loaded format if it is
// not already running at that rate. Caller holds e.mu.
func (e *Engine) ensureDeviceLocked() error {
	if e.devReady && e.devRate == e.format.SampleRate {
		return nil
	}
	rate := e.format.SampleRate
	if err := e.out.Init(rate, rate.N(DeviceBufferSize)); err != nil {
		e.devReady = false
		return err
	}
	e.devReady = true
	e.devRate = rate
	log.Debug().Int("sampleRate", int(rate)).Msg("Output device initialized")
	return nil
}

// reacquireDevice drops and reopens the device handle. Initialization
// failures surface through the error notification; the engine stays usable
// for metadata queries.
func (e *Engine) reacquireDevice() {
	e.mu.Lock()
	if !e.devReady {
		e.mu.Unlock()
		return
	}
	e.out.Clear()
	e.out.Close()
	e.devReady = false

	var err error
	if e.loaded {
		err = e.ensureDeviceLocked()
	}
	e.mu.Unlock()

	if err != nil {
		e.reportError(newError(ErrDevice, "failed to reacquire audio output", err))
	}
}

// streamLoop is the dedicated streaming goroutine: one per play session. It
// applies the volume multiplier, mirrors each chunk into the PCM bridge as
// a mono average, and advances the position until end-of-buffer, stop, or
// pause.
func (e *Engine) streamLoop(ctx context.Context, ch chan<- [][2]float64, done chan struct{}) {
	defer close(done)
	defer close(ch)

	for {
		if ctx.Err() != nil {
			return
		}

		e.mu.Lock()
		paused := e.isPaused
		total := len(e.samples)
		volume := e.volume
		e.mu.Unlock()

		if paused {
			select {
			case <-ctx.Done():
				return
			case <-time.After(pauseTick):
			}
			continue
		}

		cursor := e.positionSamples.Load()
		if int(cursor) >= total {
			e.finishStream()
			return
		}

		end := int(cursor) + e.chunkSize
		if end > total {
			end = total
		}

		chunk := make([][2]float64, end-int(cursor))
		mono := make([]float64, len(chunk))
		e.mu.Lock()
		for i := range chunk {
			l := e.samples[int(cursor)+i][0] * volume
			r := e.samples[int(cursor)+i][1] * volume
			chunk[i] = [2]float64{l, r}
			mono[i] = (l + r) / 2
		}
		e.mu.Unlock()

		e.bridge.Write(mono)

		select {
		case <-ctx.Done():
			return
		case ch <- chunk:
		}

		// A concurrent Seek wins: only advance if the cursor is where this
		// iteration left it.
		e.positionSamples.CompareAndSwap(cursor, int64(end))
	}
}

// finishStream handles natural end-of-stream: playback flags drop before
// the track-ended notification is dispatched, and the engine itself never
// navigates the playlist.
func (e *Engine) finishStream() {
	e.mu.Lock()
	e.isPlaying = false
	e.isPaused = false
	e.mu.Unlock()

	e.setState(StateEnded)
	log.Debug().Msg("Stream reached end of buffer")

	e.cbMu.RLock()
	cb := e.onTrackEnd
	notify := e.notify
	e.cbMu.RUnlock()
	if cb != nil {
		notify(cb)
	}
}

// queueStreamer adapts the chunk channel to a beep.Streamer. An empty
// channel produces silence instead of blocking, so the device's pipeline
// keeps flowing; a closed channel drains pending frames then stays silent.
type queueStreamer struct {
	ch      <-chan [][2]float64
	pending [][2]float64
	closed  bool
}

func (q *queueStreamer) Stream(samples [][2]float64) (int, bool) {
	n := 0
	for n < len(samples) {
		if len(q.pending) == 0 {
			if q.closed {
				break
			}
			select {
			case chunk, ok := <-q.ch:
				if !ok {
					q.closed = true
					continue
				}
				q.pending = chunk
			default:
				// No data ready: pad with silence, keep the stream alive.
				for i := n; i < len(samples); i++ {
					samples[i] = [2]float64{}
				}
				return len(samples), true
			}
		}
		c := copy(samples[n:], q.pending)
		q.pending = q.pending[c:]
		n += c
	}

	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (q *queueStreamer) Err() error { return nil }
