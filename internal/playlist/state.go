package playlist

import "github.com/mukerapp/muker/internal/track"

// State is the serializable shape of a playlist: the ordered track list plus
// the shuffle flag and repeat mode. It is what external collaborators
// persist and hand back via LoadState.
type State struct {
	Name    string        `json:"name,omitempty"`
	Tracks  []track.Track `json:"tracks"`
	Shuffle bool          `json:"shuffle"`
	Repeat  RepeatMode    `json:"repeat"`
}

// State captures the sequencer's current contents and modes.
func (s *Sequencer) State(name string) State {
	return State{
		Name:    name,
		Tracks:  s.Tracks(),
		Shuffle: s.shuffleEnabled,
		Repeat:  s.repeat,
	}
}

// LoadState replaces the sequencer's contents with the given state. A fresh
// shuffle order is generated when the state has shuffle enabled.
func (s *Sequencer) LoadState(st State) {
	s.Clear()
	s.AddMany(st.Tracks)
	s.repeat = st.Repeat
	s.shuffleEnabled = st.Shuffle
	if s.shuffleEnabled {
		s.regenerateShuffle(s.currentIndex)
	}
}
