// Package playlist manages the ordered track list, the current-position
// pointer, and shuffle/repeat sequencing.
package playlist

import (
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog/log"

	"github.com/mukerapp/muker/internal/track"
)

// RepeatMode controls what happens at playlist boundaries.
type RepeatMode int

const (
	RepeatOff RepeatMode = iota
	RepeatAll
	RepeatOne
)

func (r RepeatMode) String() string {
	switch r {
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	default:
		return "Off"
	}
}

// MarshalText serializes the mode in its persisted form ("off", "all", "one").
func (r RepeatMode) MarshalText() ([]byte, error) {
	switch r {
	case RepeatAll:
		return []byte("all"), nil
	case RepeatOne:
		return []byte("one"), nil
	default:
		return []byte("off"), nil
	}
}

// UnmarshalText accepts the persisted form; unknown values fall back to off.
func (r *RepeatMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "all":
		*r = RepeatAll
	case "one":
		*r = RepeatOne
	default:
		*r = RepeatOff
	}
	return nil
}

// Sequencer owns the track list and answers "what plays next/previous".
// It is not safe for concurrent use; all calls are expected to come from the
// single context that drives transport decisions.
type Sequencer struct {
	tracks       []track.Track
	currentIndex int

	shuffleEnabled bool
	shuffleOrder   []int // permutation of [0, len(tracks)) while shuffle is on
	shufflePos     int   // cursor into shuffleOrder
	repeat         RepeatMode
}

// New creates an empty Sequencer.
func New() *Sequencer {
	return &Sequencer{}
}

// Len returns the number of tracks.
func (s *Sequencer) Len() int {
	return len(s.tracks)
}

// Tracks returns a copy of the track list in insertion order.
func (s *Sequencer) Tracks() []track.Track {
	out := make([]track.Track, len(s.tracks))
	copy(out, s.tracks)
	return out
}

// TotalDuration returns the summed duration of all tracks in seconds.
func (s *Sequencer) TotalDuration() float64 {
	var total float64
	for _, t := range s.tracks {
		total += t.Duration
	}
	return total
}

// Index returns the raw list index of the currently selected track, or -1
// when the playlist is empty.
func (s *Sequencer) Index() int {
	if len(s.tracks) == 0 {
		return -1
	}
	return s.playingIndex()
}

// playingIndex resolves the raw index of the track the cursor points at,
// through the shuffle order when shuffle is on.
func (s *Sequencer) playingIndex() int {
	if s.shuffleEnabled && len(s.shuffleOrder) > 0 {
		return s.shuffleOrder[s.shufflePos]
	}
	return s.currentIndex
}

// Current returns the currently selected track. The second return value is
// false when the playlist is empty.
func (s *Sequencer) Current() (track.Track, bool) {
	if len(s.tracks) == 0 {
		return track.Track{}, false
	}
	idx := s.playingIndex()
	if idx < 0 || idx >= len(s.tracks) {
		return track.Track{}, false
	}
	return s.tracks[idx], true
}

// Add appends a track, regenerating the shuffle order if shuffle is active.
func (s *Sequencer) Add(t track.Track) {
	s.tracks = append(s.tracks, t)
	s.refreshShuffle()
}

// AddMany appends tracks in order, regenerating the shuffle order once.
func (s *Sequencer) AddMany(tracks []track.Track) {
	if len(tracks) == 0 {
		return
	}
	s.tracks = append(s.tracks, tracks...)
	s.refreshShuffle()
}

// Remove deletes the track at index. The current pointer keeps following the
// same logical track where possible: removing a track before it decrements
// the index. Out-of-range indices are ignored.
func (s *Sequencer) Remove(index int) {
	if index < 0 || index >= len(s.tracks) {
		return
	}

	s.syncFromShuffle()
	s.tracks = append(s.tracks[:index], s.tracks[index+1:]...)

	switch {
	case len(s.tracks) == 0:
		s.currentIndex = 0
	case index < s.currentIndex:
		s.currentIndex--
	case s.currentIndex >= len(s.tracks):
		s.currentIndex = len(s.tracks) - 1
	}

	s.refreshShuffle()
}

// Move relocates the track at from to position to, keeping the current
// pointer on the same logical track.
func (s *Sequencer) Move(from, to int) {
	if from < 0 || from >= len(s.tracks) || to < 0 || to >= len(s.tracks) || from == to {
		return
	}

	s.syncFromShuffle()

	t := s.tracks[from]
	s.tracks = append(s.tracks[:from], s.tracks[from+1:]...)
	s.tracks = append(s.tracks[:to], append([]track.Track{t}, s.tracks[to:]...)...)

	switch {
	case from == s.currentIndex:
		s.currentIndex = to
	case from < s.currentIndex && s.currentIndex <= to:
		s.currentIndex--
	case to <= s.currentIndex && s.currentIndex < from:
		s.currentIndex++
	}

	s.refreshShuffle()
}

// Clear removes every track and resets all cursors.
func (s *Sequencer) Clear() {
	s.tracks = nil
	s.currentIndex = 0
	s.shuffleOrder = nil
	s.shufflePos = 0
}

// SetCurrent points the sequencer at the given raw index. In shuffle mode
// the shuffle cursor jumps to wherever that index sits in the order.
func (s *Sequencer) SetCurrent(index int) {
	if index < 0 || index >= len(s.tracks) {
		return
	}
	s.currentIndex = index

	if s.shuffleEnabled {
		for pos, idx := range s.shuffleOrder {
			if idx == index {
				s.shufflePos = pos
				return
			}
		}
	}
}

// Next advances the cursor. The second return value is false at the end of
// the list when repeat is off; the cursor stays on the last track in that
// case.
func (s *Sequencer) Next() (track.Track, bool) {
	if len(s.tracks) == 0 {
		return track.Track{}, false
	}
	if s.shuffleEnabled {
		return s.nextShuffle()
	}
	return s.nextSequential()
}

func (s *Sequencer) nextSequential() (track.Track, bool) {
	if s.repeat == RepeatOne {
		return s.Current()
	}

	s.currentIndex++
	if s.currentIndex >= len(s.tracks) {
		if s.repeat == RepeatAll {
			s.currentIndex = 0
		} else {
			s.currentIndex = len(s.tracks) - 1
			return track.Track{}, false
		}
	}
	return s.Current()
}

func (s *Sequencer) nextShuffle() (track.Track, bool) {
	if len(s.shuffleOrder) == 0 {
		return track.Track{}, false
	}
	if s.repeat == RepeatOne {
		return s.Current()
	}

	s.shufflePos++
	if s.shufflePos >= len(s.shuffleOrder) {
		if s.repeat == RepeatAll {
			// A fresh permutation each wrap, pinned on the track that was
			// just playing.
			s.regenerateShuffle(s.shuffleOrder[len(s.shuffleOrder)-1])
		} else {
			s.shufflePos = len(s.shuffleOrder) - 1
			return track.Track{}, false
		}
	}
	return s.Current()
}

// Previous moves the cursor back. Unlike Next, hitting the start of the
// list with repeat off replays the first track instead of returning
// nothing; with repeat all it wraps to the last track.
func (s *Sequencer) Previous() (track.Track, bool) {
	if len(s.tracks) == 0 {
		return track.Track{}, false
	}
	if s.shuffleEnabled {
		return s.previousShuffle()
	}
	return s.previousSequential()
}

func (s *Sequencer) previousSequential() (track.Track, bool) {
	s.currentIndex--
	if s.currentIndex < 0 {
		if s.repeat == RepeatAll {
			s.currentIndex = len(s.tracks) - 1
		} else {
			s.currentIndex = 0
		}
	}
	return s.Current()
}

func (s *Sequencer) previousShuffle() (track.Track, bool) {
	if len(s.shuffleOrder) == 0 {
		return track.Track{}, false
	}

	s.shufflePos--
	if s.shufflePos < 0 {
		if s.repeat == RepeatAll {
			s.shufflePos = len(s.shuffleOrder) - 1
		} else {
			s.shufflePos = 0
		}
	}
	return s.Current()
}

// ToggleShuffle flips shuffle mode and returns the new state. Turning it on
// generates a permutation with the current track pinned at the head; turning
// it off syncs the sequential cursor back to the track that was playing.
func (s *Sequencer) ToggleShuffle() bool {
	s.shuffleEnabled = !s.shuffleEnabled

	if s.shuffleEnabled {
		s.regenerateShuffle(s.currentIndex)
	} else {
		s.syncFromShuffle()
		s.shuffleOrder = nil
		s.shufflePos = 0
	}

	log.Debug().Bool("shuffle", s.shuffleEnabled).Msg("Shuffle toggled")
	return s.shuffleEnabled
}

// ToggleRepeat cycles Off -> All -> One -> Off and returns the new mode.
func (s *Sequencer) ToggleRepeat() RepeatMode {
	switch s.repeat {
	case RepeatOff:
		s.repeat = RepeatAll
	case RepeatAll:
		s.repeat = RepeatOne
	default:
		s.repeat = RepeatOff
	}

	log.Debug().Stringer("repeat", s.repeat).Msg("Repeat toggled")
	return s.repeat
}

// Shuffled returns whether shuffle is enabled.
func (s *Sequencer) Shuffled() bool {
	return s.shuffleEnabled
}

// Repeat returns the current repeat mode.
func (s *Sequencer) Repeat() RepeatMode {
	return s.repeat
}

// SetRepeat sets the repeat mode directly (used when restoring state).
func (s *Sequencer) SetRepeat(mode RepeatMode) {
	s.repeat = mode
}

// syncFromShuffle copies the raw index of the playing track back into
// currentIndex, so sequential bookkeeping stays correct while shuffle walks
// the permutation.
func (s *Sequencer) syncFromShuffle() {
	if s.shuffleEnabled && len(s.shuffleOrder) > 0 && s.shufflePos < len(s.shuffleOrder) {
		s.currentIndex = s.shuffleOrder[s.shufflePos]
	}
}

// refreshShuffle regenerates the permutation after a mutation, keeping the
// playing track pinned. No-op while shuffle is off.
func (s *Sequencer) refreshShuffle() {
	if !s.shuffleEnabled {
		return
	}
	if s.currentIndex >= len(s.tracks) && len(s.tracks) > 0 {
		s.currentIndex = len(s.tracks) - 1
	}
	s.regenerateShuffle(s.currentIndex)
}

// regenerateShuffle builds a Fisher-Yates permutation of all indices except
// pinned, which goes to position 0. The shuffle cursor resets to the head.
func (s *Sequencer) regenerateShuffle(pinned int) {
	n := len(s.tracks)
	if n == 0 {
		s.shuffleOrder = nil
		s.shufflePos = 0
		return
	}
	if pinned < 0 || pinned >= n {
		pinned = 0
	}
	s.currentIndex = pinned

	others := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != pinned {
			others = append(others, i)
		}
	}
	for i := len(others) - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		others[i], others[j] = others[j], others[i]
	}

	s.shuffleOrder = make([]int, 0, n)
	s.shuffleOrder = append(s.shuffleOrder, pinned)
	s.shuffleOrder = append(s.shuffleOrder, others...)
	s.shufflePos = 0
}

func (s *Sequencer) String() string {
	return fmt.Sprintf("playlist{tracks=%d index=%d shuffle=%v repeat=%s}",
		len(s.tracks), s.currentIndex, s.shuffleEnabled, s.repeat)
}
