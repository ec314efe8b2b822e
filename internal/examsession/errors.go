package examsession

import "errors"

var (
	// ErrSupplyFailed is returned when questions could not be fetched. The session is Aborted.
	ErrSupplyFailed = errors.New("question supply failed")
	// ErrNoQuestions is returned when the fetch succeeded with an empty set. The session is Aborted.
	ErrNoQuestions = errors.New("no questions available")
	// ErrSubmissionFailed is returned when grading failed. The session stays Submitting and
	// Submit may be called again with the same frozen answers.
	ErrSubmissionFailed = errors.New("submission failed")

	ErrInvalidTransition  = errors.New("invalid session transition")
	ErrAbandoned          = errors.New("session abandoned")
	ErrSubmissionInFlight = errors.New("submission already in flight")
	ErrAlreadyCompleted   = errors.New("session already completed")
)
