// Package transcript accumulates recognizer output into a committed buffer
// and decides when enough speech has been captured.
package transcript

import (
	"strings"

	"dubashi.dev/asr"
)

// DefaultTerminators is the sentence-ending punctuation counted toward the
// capture limit: Latin sentence marks, the ellipsis, and the danda marks
// used in Kannada-script text.
const DefaultTerminators = ".!?…।॥"

// DefaultSentenceLimit is how many finished sentences end a capture.
const DefaultSentenceLimit = 5

// Accumulator merges recognizer batches into a growing transcript. Final
// fragments are appended to the committed buffer and never rewritten; the
// interim tail is replaced on every batch until it finalizes.
type Accumulator struct {
	terminators string
	limit       int

	committed string
	interim   string
	next      int
}

func NewAccumulator(terminators string, limit int) *Accumulator {
	if terminators == "" {
		terminators = DefaultTerminators
	}
	if limit <= 0 {
		limit = DefaultSentenceLimit
	}
	return &Accumulator{terminators: terminators, limit: limit}
}

// Fold merges one recognizer batch and reports whether the committed text
// has reached the sentence limit. Results before the batch's resume index,
// and results already folded by an earlier batch, are skipped, so a
// duplicated event cannot duplicate committed text.
func (a *Accumulator) Fold(batch asr.Batch) (stop bool) {
	start := batch.ResumeIndex
	if a.next > start {
		start = a.next
	}

	var finals []string
	var interim []string
	for i := start; i < len(batch.Results); i++ {
		r := batch.Results[i]
		text := strings.TrimSpace(r.Text)
		if r.Final {
			if text != "" {
				finals = append(finals, text)
			}
			a.next = i + 1
		} else if text != "" {
			interim = append(interim, text)
		}
	}

	if len(finals) > 0 {
		joined := strings.Join(finals, " ")
		if a.committed == "" {
			a.committed = joined
		} else {
			a.committed += " " + joined
		}
	}
	a.interim = strings.Join(interim, " ")

	return CountSentences(a.committed, a.terminators) >= a.limit
}

// Committed returns the finalized transcript.
func (a *Accumulator) Committed() string { return a.committed }

// Interim returns the provisional tail still subject to revision.
func (a *Accumulator) Interim() string { return a.interim }

// Preview returns the committed text with the interim tail appended, the
// string a live view should display.
func (a *Accumulator) Preview() string {
	if a.interim == "" {
		return a.committed
	}
	if a.committed == "" {
		return a.interim
	}
	return a.committed + " " + a.interim
}

// Sentences reports how many finished sentences the committed text holds.
func (a *Accumulator) Sentences() int {
	return CountSentences(a.committed, a.terminators)
}

// Limit returns the configured sentence limit.
func (a *Accumulator) Limit() int { return a.limit }

// Reset clears all transcript state but keeps the configuration.
func (a *Accumulator) Reset() {
	a.committed = ""
	a.interim = ""
	a.next = 0
}

// CountSentences counts sentence-terminating marks in text. It is pure and
// monotonic in the committed buffer: appending text never lowers the count.
func CountSentences(text, terminators string) int {
	if terminators == "" {
		terminators = DefaultTerminators
	}
	n := 0
	for _, r := range text {
		if strings.ContainsRune(terminators, r) {
			n++
		}
	}
	return n
}
