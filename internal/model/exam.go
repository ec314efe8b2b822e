package model

import (
	"fmt"
	"strconv"
	"time"
)

// Grading bands. Lower bounds are inclusive.
const (
	BandExcellent      = "Excellent"
	BandGood           = "Good"
	BandKeepPracticing = "Keep Practicing"

	ExcellentThreshold = 80.0
	GoodThreshold      = 50.0
)

// AnswerMap maps question id to the exact option text the examinee selected.
type AnswerMap map[int]string

// Wire converts the map to its JSON request form, keyed by decimal id strings.
func (m AnswerMap) Wire() map[string]string {
	out := make(map[string]string, len(m))
	for id, text := range m {
		out[strconv.Itoa(id)] = text
	}
	return out
}

// Clone returns an independent copy.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for id, text := range m {
		out[id] = text
	}
	return out
}

// SubmitExamRequest is the payload for POST /api/submit-exam.
// Answers stays keyed by string so a single malformed id cannot reject the batch.
type SubmitExamRequest struct {
	Answers   map[string]string `json:"answers" binding:"required,max=500"`
	StudentID int               `json:"studentId" binding:"required,min=1"`
	SubjectID int               `json:"subjectId" binding:"required,min=1"`
	ClassID   string            `json:"classId" binding:"max=20"`
	TimeTaken string            `json:"timeTaken" binding:"omitempty,clock"`
}

// SubmitExamResponse is the success body of POST /api/submit-exam.
type SubmitExamResponse struct {
	Success    bool    `json:"success"`
	Score      int     `json:"score" validate:"gte=0"`
	Total      int     `json:"total" validate:"gte=0,gtefield=Score"`
	Message    string  `json:"message" validate:"required"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
	ResultID   int64   `json:"resultId,omitempty"`
	Correct    int     `json:"correct"`
	Wrong      int     `json:"wrong"`
}

// GradingResult is the persisted, immutable outcome of one submission.
type GradingResult struct {
	ID         int64     `json:"id"`
	StudentID  int       `json:"student_id"`
	SubjectID  int       `json:"subject_id"`
	ClassID    string    `json:"class_id"`
	Correct    int       `json:"correct"`
	Wrong      int       `json:"wrong"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	Message    string    `json:"message"`
	TimeTaken  string    `json:"time_taken"`
	CreatedAt  time.Time `json:"created_at"`
}

// Response renders the result in the submit-exam response shape.
func (r *GradingResult) Response() SubmitExamResponse {
	return SubmitExamResponse{
		Success:    true,
		Score:      r.Correct,
		Total:      r.Total,
		Message:    r.Message,
		Percentage: r.Percentage,
		ResultID:   r.ID,
		Correct:    r.Correct,
		Wrong:      r.Wrong,
	}
}

// GradedAnswer is one persisted answer of a result.
type GradedAnswer struct {
	QuestionID      int    `json:"question_id"`
	SubmittedAnswer string `json:"submitted_answer"`
	IsCorrect       bool   `json:"is_correct"`
}

// Percentage returns correct/total*100, or 0 when total is 0.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// Band maps a percentage to its qualitative message.
func Band(percentage float64) string {
	switch {
	case percentage >= ExcellentThreshold:
		return BandExcellent
	case percentage >= GoodThreshold:
		return BandGood
	default:
		return BandKeepPracticing
	}
}

// FormatClock renders whole seconds as MM:SS. Negative input is treated as zero.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
