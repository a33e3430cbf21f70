package engine

import "time"

// CommandType identifies a persistence request.
type CommandType string

const (
	// CommandCreate asks for a new session record.
	CommandCreate CommandType = "create"
	// CommandFinish closes an existing session record.
	CommandFinish CommandType = "finish"
	// CommandPause records that the countdown stopped at At.
	CommandPause CommandType = "pause"
	// CommandResume records that the countdown continued at At.
	CommandResume CommandType = "resume"
)

// Command is a persistence request emitted by the engine. The engine never
// waits for it to be applied.
type Command struct {
	Type      CommandType
	SessionID string
	UserID    string

	// Set on create.
	Kind            Kind
	DurationMinutes int
	StartTime       time.Time
	TaskID          *string
	GitBranch       string
	GitCommit       string
	CyclePosition   int

	// Set on finish.
	Completed bool
	EndTime   time.Time

	// Set on pause and resume.
	At time.Time
}

// Event announces a transition. Finished is the kind that just ended and
// Next is the kind now loaded.
type Event struct {
	UserID        string    `json:"userId"`
	SessionID     string    `json:"sessionId,omitempty"`
	TaskID        *string   `json:"taskId,omitempty"`
	Finished      Kind      `json:"finished"`
	Next          Kind      `json:"next"`
	Skipped       bool      `json:"skipped"`
	CyclePosition int       `json:"cyclePosition"`
	At            time.Time `json:"at"`
}

// WorkComplete reports whether the event closes a work interval.
func (e Event) WorkComplete() bool {
	return e.Finished == KindWork
}

// Effects is everything queued since the previous Drain.
type Effects struct {
	Commands []Command
	Events   []Event
}

// Empty returns true when nothing was queued.
func (f Effects) Empty() bool {
	return len(f.Commands) == 0 && len(f.Events) == 0
}
