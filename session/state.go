package session

// State is the capture session lifecycle position.
//
//	Idle → Listening → (Stopped | Limited) → Idle
//
// Reset returns to Idle from any state.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateStopped   State = "stopped"
	StateLimited   State = "limited"
)

// canStart reports whether a new capture may begin from s. A capture can be
// (re)started from anywhere except an already-listening session.
func canStart(s State) bool {
	return s != StateListening
}
