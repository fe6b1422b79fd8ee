package cloudsync

import (
	"errors"
	"time"
)

// Refusal messages reported in Result.Error.
const (
	ReasonNotAuthenticated = "Not authenticated"
	ReasonInProgress       = "Sync in progress"
)

// ErrInProgress is returned by operations that cannot run alongside a sync.
var ErrInProgress = errors.New(ReasonInProgress)

// Result describes one run.
type Result struct {
	Success       bool
	PulledEntries int
	PulledBars    int
	PushedEntries int
	PushedBars    int
	// Conflicts counts remote records that arrived for a locally dirty
	// record, whichever side won.
	Conflicts int
	Error     string
}

// Pulled is the number of records merged from the remote.
func (r Result) Pulled() int { return r.PulledEntries + r.PulledBars }
// Pushed is the number of records uploaded.
func (r Result) Pushed() int { return r.PushedEntries + r.PushedBars }

// Status is the engine state visible to callers.
type Status struct {
	LastSync       *time.Time
	InProgress     bool
	LastError      string
	PendingChanges int
}

func (s Status) clone() Status {
	if s.LastSync != nil {
		at := *s.LastSync
		s.LastSync = &at
	}
	return s
}
