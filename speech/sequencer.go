package speech

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Sequencer speaks strings through a Synthesizer, keeping at most one
// utterance audible: issuing a new utterance cancels any in-flight one. The
// voice pick is recomputed from the catalog on every utterance.
type Sequencer struct {
	synth    Synthesizer
	target   string
	fallback string
	logger   *log.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	sequence uint64
}

func NewSequencer(synth Synthesizer, target, fallback string, logger *log.Logger) *Sequencer {
	return &Sequencer{synth: synth, target: target, fallback: fallback, logger: logger}
}

// Speak voices text and returns once the utterance finishes or fails. A call
// that gets superseded by a newer Speak returns ctx cancellation; the newer
// call proceeds alone.
func (s *Sequencer) Speak(ctx context.Context, text string) error {
	if s.synth == nil {
		return ErrSpeechUnavailable
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to speak")
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.sequence++
	seq := s.sequence
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		// Only the newest utterance may clear the cancel slot.
		if s.sequence == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	var voice *Voice
	voices, err := s.synth.Voices(ctx)
	if err != nil {
		// Catalog failure is not fatal: fall through to the default voice.
		s.logger.Warn("voice catalog unavailable", "error", err)
	} else {
		voice = SelectVoice(voices, s.target, s.fallback)
	}

	if voice != nil {
		s.logger.Debug("speak", "voice", voice.Name, "lang", voice.Lang)
	}
	if err := s.synth.Speak(ctx, text, voice); err != nil {
		return fmt.Errorf("speech failed: %w", err)
	}
	return nil
}
