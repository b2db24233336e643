package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// ESpeak is a Synthesizer backed by the espeak-ng command-line engine. The
// voice catalog comes from `espeak-ng --voices`; utterances are spoken with
// `espeak-ng -v <voice>` and can be cut off through ctx.
type ESpeak struct {
	path   string
	logger *log.Logger
}

// NewESpeak locates the espeak-ng binary. It returns ErrSpeechUnavailable
// when the engine is not installed.
func NewESpeak(path string, logger *log.Logger) (*ESpeak, error) {
	if path == "" {
		path = "espeak-ng"
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return nil, ErrSpeechUnavailable
	}
	return &ESpeak{path: resolved, logger: logger}, nil
}

func (e *ESpeak) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, e.path, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list voices: %w", err)
	}
	return parseVoices(string(out)), nil
}

// parseVoices reads the columnar `--voices` listing. Each data line looks
// like:
//
//	Pty Language       Age/Gender VoiceName  File        Other Languages
//	 5  kn              --/M      Kannada    kan
func parseVoices(listing string) []Voice {
	var voices []Voice
	lines := strings.Split(listing, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{Name: fields[3], Lang: fields[1]})
	}
	return voices
}

func (e *ESpeak) Speak(ctx context.Context, text string, voice *Voice) error {
	args := []string{}
	if voice != nil {
		// espeak-ng resolves language tags more reliably than display names.
		tag := voice.Lang
		if tag == "" {
			tag = voice.Name
		}
		args = append(args, "-v", strings.ToLower(tag))
	}
	args = append(args, "--", text)

	cmd := exec.CommandContext(ctx, e.path, args...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("espeak-ng failed: %w", err)
	}
	return nil
}
