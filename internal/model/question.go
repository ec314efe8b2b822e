package model

import "time"

// OptionLabels names the four option slots in display order.
var OptionLabels = [4]string{"A", "B", "C", "D"}

// Question is a stored multiple-choice question. CorrectAnswer never leaves the server.
type Question struct {
	ID            int       `json:"id"`
	SubjectID     int       `json:"subject_id"`
	ClassID       *string   `json:"class_id,omitempty"`
	QuestionText  string    `json:"question_text"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer string    `json:"-"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// ForStudent strips the correct answer.
func (q *Question) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		OptionA:      q.OptionA,
		OptionB:      q.OptionB,
		OptionC:      q.OptionC,
		OptionD:      q.OptionD,
	}
}

// QuestionForStudent is the answer-hidden question served to examinees.
type QuestionForStudent struct {
	ID           int    `json:"id" validate:"gt=0"`
	QuestionText string `json:"question_text" validate:"required"`
	OptionA      string `json:"option_a"`
	OptionB      string `json:"option_b"`
	OptionC      string `json:"option_c"`
	OptionD      string `json:"option_d"`
}

// Options returns the four option slots A..D. Absent options are empty strings.
func (q QuestionForStudent) Options() [4]string {
	return [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// OptionAt resolves a zero-based slot index to its option text.
// It reports false for out-of-range indexes and empty slots.
func (q QuestionForStudent) OptionAt(i int) (string, bool) {
	if i < 0 || i >= len(OptionLabels) {
		return "", false
	}
	text := q.Options()[i]
	if text == "" {
		return "", false
	}
	return text, true
}

// QuestionRequest is the payload for POST /api/questions.
// ClassID is accepted but optional.
type QuestionRequest struct {
	Subject int    `json:"subject" binding:"required,min=1"`
	Count   int    `json:"count" binding:"required,min=1"`
	ClassID string `json:"classId,omitempty" binding:"max=20"`
}

// QuestionsResponse is the success body of POST /api/questions.
type QuestionsResponse struct {
	Success   bool                 `json:"success"`
	Questions []QuestionForStudent `json:"questions" validate:"required,dive"`
}
