package speech

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectVoice(t *testing.T) {
	catalog := []Voice{
		{Name: "English (Great Britain)", Lang: "en-GB"},
		{Name: "Hindi", Lang: "hi-IN"},
		{Name: "Kannada", Lang: "kn-IN"},
		{Name: "Konkani", Lang: "kok"},
	}

	tests := []struct {
		name     string
		voices   []Voice
		target   string
		fallback string
		want     string // voice name, "" for nil
	}{
		{"exact match", catalog, "kn-IN", "hi-IN", "Kannada"},
		{"exact match case-insensitive", catalog, "KN-in", "hi-IN", "Kannada"},
		{"prefix match on two-letter code", []Voice{
			{Name: "English", Lang: "en-GB"},
			{Name: "Kannada", Lang: "kn"},
		}, "kn-IN", "hi-IN", "Kannada"},
		{"regional fallback", []Voice{
			{Name: "English", Lang: "en-GB"},
			{Name: "Hindi", Lang: "hi-IN"},
		}, "kn-IN", "hi-IN", "Hindi"},
		{"first voice of any language", []Voice{
			{Name: "French", Lang: "fr-FR"},
			{Name: "German", Lang: "de-DE"},
		}, "kn-IN", "hi-IN", "French"},
		{"empty catalog", nil, "kn-IN", "hi-IN", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectVoice(tt.voices, tt.target, tt.fallback)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestSelectVoicePrefixDoesNotShadowExact(t *testing.T) {
	voices := []Voice{
		{Name: "Konkani", Lang: "kok"}, // "kok" is not a prefix hit for code "kn"
		{Name: "Kannada", Lang: "kn-IN"},
	}
	got := SelectVoice(voices, "kn-IN", "hi-IN")
	require.NotNil(t, got)
	assert.Equal(t, "Kannada", got.Name)
}

// fakeSynth records utterances and blocks until released or cancelled.
type fakeSynth struct {
	mu       sync.Mutex
	spoken   []string
	voiceErr error
	speakErr error
	block    chan struct{}
	voices   []Voice
	picked   []*Voice
}

func (f *fakeSynth) Voices(context.Context) ([]Voice, error) {
	return f.voices, f.voiceErr
}

func (f *fakeSynth) Speak(ctx context.Context, text string, voice *Voice) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.picked = append(f.picked, voice)
	block := f.block
	f.mu.Unlock()

	if f.speakErr != nil {
		return f.speakErr
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func newTestSequencer(synth Synthesizer) *Sequencer {
	return NewSequencer(synth, "kn-IN", "hi-IN", log.New(io.Discard))
}

func TestSequencerSpeaksWithSelectedVoice(t *testing.T) {
	synth := &fakeSynth{voices: []Voice{{Name: "Kannada", Lang: "kn-IN"}}}
	s := newTestSequencer(synth)

	err := s.Speak(context.Background(), "ನಮಸ್ಕಾರ")

	require.NoError(t, err)
	require.Len(t, synth.spoken, 1)
	assert.Equal(t, "ನಮಸ್ಕಾರ", synth.spoken[0])
	require.NotNil(t, synth.picked[0])
	assert.Equal(t, "Kannada", synth.picked[0].Name)
}

func TestSequencerNoSynthesizer(t *testing.T) {
	s := newTestSequencer(nil)
	assert.ErrorIs(t, s.Speak(context.Background(), "hello"), ErrSpeechUnavailable)
}

func TestSequencerRejectsEmptyText(t *testing.T) {
	s := newTestSequencer(&fakeSynth{})
	assert.Error(t, s.Speak(context.Background(), "   "))
}

func TestSequencerCatalogFailureFallsBackToDefaultVoice(t *testing.T) {
	synth := &fakeSynth{voiceErr: fmt.Errorf("catalog down")}
	s := newTestSequencer(synth)

	require.NoError(t, s.Speak(context.Background(), "hello"))
	require.Len(t, synth.picked, 1)
	assert.Nil(t, synth.picked[0])
}

func TestSequencerSurfacesSynthesisError(t *testing.T) {
	synth := &fakeSynth{speakErr: fmt.Errorf("engine crashed")}
	s := newTestSequencer(synth)

	err := s.Speak(context.Background(), "hello")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSpeechUnavailable)
}

func TestSequencerCancelsInFlightUtterance(t *testing.T) {
	synth := &fakeSynth{block: make(chan struct{})}
	s := newTestSequencer(synth)

	first := make(chan error, 1)
	go func() { first <- s.Speak(context.Background(), "one") }()

	// Wait until the first utterance is in flight.
	require.Eventually(t, func() bool {
		synth.mu.Lock()
		defer synth.mu.Unlock()
		return len(synth.spoken) == 1
	}, time.Second, time.Millisecond)

	synth.mu.Lock()
	synth.block = nil
	synth.mu.Unlock()

	require.NoError(t, s.Speak(context.Background(), "two"))

	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("superseded utterance never completed")
	}

	synth.mu.Lock()
	defer synth.mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, synth.spoken)
}

func TestParseVoices(t *testing.T) {
	listing := `Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  kn              --/M      Kannada            kan
 5  hi              --/M      Hindi              hin
 5  en-gb           --/M      English_(Great_Britain) gmw/en
`
	voices := parseVoices(listing)
	require.Len(t, voices, 3)
	assert.Equal(t, Voice{Name: "Kannada", Lang: "kn"}, voices[0])
	assert.Equal(t, "en-gb", voices[2].Lang)
}
