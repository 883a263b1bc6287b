package instructor

import (
	"context"
	"sync"

	"github.com/akshad113/loom-ai-instructor/internal/ai"
)

// FallbackNotice is surfaced once when remote synthesis stops working
// and the session switches to the local voice.
const FallbackNotice = "Voice quality reduced: using the local voice for the rest of this session."

// DefaultSampleRate is the PCM sample rate the speech backend emits.
const DefaultSampleRate = 24000

// Utterance is one piece of spoken instructor output. Audio holds raw
// PCM at SampleRate when the remote backend produced it; Local marks
// utterances the client should render with its built-in voice instead.
type Utterance struct {
	Text       string `json:"text"`
	Audio      []byte `json:"audio,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Local      bool   `json:"local"`
	Notice     string `json:"notice,omitempty"`
}

// Speech synthesizes instructor replies. It prefers the remote backend
// and falls back to the local voice permanently once the remote one
// fails. At most one utterance is active at a time.
type Speech struct {
	synth ai.Synthesizer
	rate  int

	mu        sync.Mutex
	localOnly bool
	noticed   bool
	active    *Utterance
}

// NewSpeech wires a remote synthesizer. A nil synthesizer means the
// local voice is used from the start, without a notice.
func NewSpeech(synth ai.Synthesizer, sampleRate int) *Speech {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Speech{synth: synth, rate: sampleRate, localOnly: synth == nil}
}

// Speak synthesizes text, stopping any utterance already playing.
func (s *Speech) Speak(ctx context.Context, text string) (*Utterance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = nil

	if s.localOnly {
		u := &Utterance{Text: text, Local: true}
		s.active = u
		return u, nil
	}

	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		s.localOnly = true
		u := &Utterance{Text: text, Local: true}
		if !s.noticed {
			s.noticed = true
			u.Notice = FallbackNotice
		}
		s.active = u
		return u, nil
	}

	u := &Utterance{Text: text, Audio: audio, SampleRate: s.rate}
	s.active = u
	return u, nil
}

// Stop releases the active utterance, if any.
func (s *Speech) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
}

// Active returns the utterance currently playing, or nil.
func (s *Speech) Active() *Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// LocalOnly reports whether the session has fallen back to the local voice.
func (s *Speech) LocalOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localOnly
}
