package examsession

import "github.com/pupilnest/pupilnest-backend/internal/model"

// State is the lifecycle phase of one exam attempt.
type State int

const (
	StateLoading State = iota
	StateActive
	StateSubmitting
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// EventType identifies what changed.
type EventType int

const (
	EventActivated EventType = iota
	// EventUpdated follows a selection or navigation.
	EventUpdated
	EventTick
	EventSubmitting
	EventCompleted
	EventSubmitFailed
	EventAborted
)

func (t EventType) String() string {
	switch t {
	case EventActivated:
		return "activated"
	case EventUpdated:
		return "updated"
	case EventTick:
		return "tick"
	case EventSubmitting:
		return "submitting"
	case EventCompleted:
		return "completed"
	case EventSubmitFailed:
		return "submit_failed"
	case EventAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Event is delivered to the listener after the controller lock is released.
type Event struct {
	Type     EventType
	Snapshot Snapshot
	Err      error
}

// Snapshot is a read-only copy of the session.
type Snapshot struct {
	State   State
	Index   int
	Total   int
	Current *model.QuestionForStudent
	// Selected is the recorded answer of the current question, if any.
	Selected  string
	Remaining int
	Answers   model.AnswerMap
	Result    *model.SubmitExamResponse
	Err       error
}

// Answered reports how many questions have a recorded answer.
func (s Snapshot) Answered() int {
	return len(s.Answers)
}
