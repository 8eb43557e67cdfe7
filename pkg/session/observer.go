package session

import "time"

// Stage names the step of Acquire that failed.
type Stage string

const (
	StageConnect Stage = "connect"
	StageSetup   Stage = "setup"
)

// Observer receives session lifecycle events. Implementations must be
// safe for concurrent use and must not block.
type Observer interface {
	SessionAcquired()
	SessionReleased(held time.Duration)
	SessionFailed(stage Stage)
}

type nopObserver struct{}

func (nopObserver) SessionAcquired()              {}
func (nopObserver) SessionReleased(time.Duration) {}
func (nopObserver) SessionFailed(Stage)           {}

// Stats is a snapshot of the manager's lifetime counters.
type Stats struct {
	Acquired      int64
	Released      int64
	ConnectFailed int64
	SetupFailed   int64
}

// Open reports sessions acquired and not yet released.
func (s Stats) Open() int64 {
	return s.Acquired - s.Released
}
