package engine

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// DeviceBufferSize is how much audio the output device buffers ahead.
const DeviceBufferSize = 100 * time.Millisecond

// Device abstracts the native audio output so the engine can be exercised
// without a sound card. The speaker-backed implementation is the default;
// tests inject a pull-loop fake.
type Device interface {
	// Init acquires the device for the given sample rate. Safe to call
	// again after Close to reacquire a fresh handle.
	Init(sampleRate beep.SampleRate, bufferSize int) error
	// Play hands the device a streamer to pull from in real time.
	Play(s beep.Streamer)
	// Clear drops the current streamer; the device keeps running.
	Clear()
	// Close releases the device handle.
	Close()
}

// speakerDevice adapts the process-wide beep speaker.
type speakerDevice struct{}

func (speakerDevice) Init(sampleRate beep.SampleRate, bufferSize int) error {
	return speaker.Init(sampleRate, bufferSize)
}

func (speakerDevice) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerDevice) Clear()               { speaker.Clear() }
func (speakerDevice) Close()               { speaker.Close() }
