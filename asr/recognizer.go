package asr

import (
	"context"
	"errors"
)

// ErrNoRecognizer indicates that no speech recognition capability is wired.
var ErrNoRecognizer = errors.New("speech recognition is not available")

// Result is a single recognized fragment. Interim results may be revised by
// the recognizer until a final result replaces them at the same position.
type Result struct {
	Text  string
	Final bool
}

// Batch is one recognizer event. Results holds the full result history for
// the capture; ResumeIndex is the position of the first result that was not
// delivered in an earlier event. Consumers must not reprocess results before
// ResumeIndex.
type Batch struct {
	Results     []Result
	ResumeIndex int
}

type EventKind int

const (
	EventResult EventKind = iota
	EventError
	EventEnd
)

// Event is delivered on the recognizer's event channel. Batch is set for
// EventResult, Err for EventError.
type Event struct {
	Kind  EventKind
	Batch Batch
	Err   error
}

// Recognizer is a continuous, interim-enabled speech recognizer.
//
// The recognizer may end spontaneously (silence timeout, socket close); it
// reports this with an EventEnd and may be started again with Start.
type Recognizer interface {
	// Start begins or resumes capture. It fails if the capture cannot be
	// established (for example the audio source or endpoint is unavailable).
	Start(ctx context.Context) error

	// Stop requests the end of capture. It reports false when the
	// recognizer was already stopped, so callers never need to treat a
	// redundant stop as an error.
	Stop() bool

	// Events returns the channel on which result, error, and end events
	// are delivered in order.
	Events() <-chan Event
}
