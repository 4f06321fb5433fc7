package backlog

import "fmt"

// Status represents the lifecycle state of a backlog item.
// ENUM(QUEUED, IN_PROGRESS, WAITING, PR_OPEN, DONE, FAILED).
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusWaiting    Status = "WAITING"
	StatusPROpen     Status = "PR_OPEN"
	StatusDone       Status = "DONE"
	StatusFailed     Status = "FAILED"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []Status{
	StatusQueued,
	StatusInProgress,
	StatusWaiting,
	StatusPROpen,
	StatusDone,
	StatusFailed,
}

// StatusClass partitions statuses by the mutation rights reconciliation has
// over an item in that status.
type StatusClass int

const (
	// ClassModifiable items may be updated or removed by a sync.
	ClassModifiable StatusClass = iota
	// ClassActive items are being worked on and are never touched.
	ClassActive
	// ClassCompleted items are finished; a markdown match may requeue them.
	ClassCompleted
)

func (c StatusClass) String() string {
	switch c {
	case ClassModifiable:
		return "modifiable"
	case ClassActive:
		return "active"
	case ClassCompleted:
		return "completed"
	default:
		return fmt.Sprintf("StatusClass(%d)", int(c))
	}
}

// Class returns the mutation class of the status. Unrecognized values are
// classified as active so they are never rewritten.
func (s Status) Class() StatusClass {
	switch s {
	case StatusQueued:
		return ClassModifiable
	case StatusDone, StatusFailed:
		return ClassCompleted
	default:
		return ClassActive
	}
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusQueued, StatusInProgress, StatusWaiting, StatusPROpen, StatusDone, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}
