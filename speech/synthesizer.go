// Package speech turns translated text into audible speech through a
// platform synthesizer, one utterance at a time.
package speech

import (
	"context"
	"errors"
	"strings"
)

// ErrSpeechUnavailable indicates that no speech synthesis capability exists.
var ErrSpeechUnavailable = errors.New("speech synthesis is not available")

// Voice is one entry of the platform voice catalog. Lang is a BCP 47-style
// tag such as "kn-IN" or a bare code such as "kn".
type Voice struct {
	Name string
	Lang string
}

// Synthesizer is a speech synthesis engine with a queryable voice catalog.
// Speak blocks until the utterance finishes, fails, or ctx is cancelled, so
// completion is signaled exactly once.
type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, text string, voice *Voice) error
}

// SelectVoice ranks the catalog against the target language tag: an exact
// tag match wins, then a prefix match on the target's two-letter code, then
// a voice for the regional fallback locale, then the first voice of any
// language. A nil return means "use the platform default voice".
func SelectVoice(voices []Voice, target, fallback string) *Voice {
	for i := range voices {
		if strings.EqualFold(voices[i].Lang, target) {
			return &voices[i]
		}
	}

	if code := languageCode(target); code != "" {
		for i := range voices {
			if strings.HasPrefix(strings.ToLower(voices[i].Lang), code) {
				return &voices[i]
			}
		}
	}

	if fallback != "" {
		for i := range voices {
			if strings.EqualFold(voices[i].Lang, fallback) {
				return &voices[i]
			}
		}
	}

	if len(voices) > 0 {
		return &voices[0]
	}
	return nil
}

func languageCode(tag string) string {
	tag = strings.ToLower(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}
