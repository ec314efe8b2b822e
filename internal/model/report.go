package model

import (
	"errors"
	"time"
)

// ReportType selects which historical results are returned.
type ReportType string

const (
	ReportLast    ReportType = "last"
	ReportSubject ReportType = "subject"
	ReportDate    ReportType = "date"
)

// ReportQuery is bound from the query string of GET /api/reports.
type ReportQuery struct {
	Type      ReportType `form:"type" binding:"omitempty,oneof=last subject date"`
	SubjectID int        `form:"subjectId" binding:"omitempty,min=1"`
	From      string     `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string     `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// ReportFilter is the parsed form of ReportQuery.
type ReportFilter struct {
	Type      ReportType
	SubjectID int
	From      time.Time
	// To is exclusive: the day after the last requested day.
	To time.Time
}

// ErrInvalidReportQuery is returned when a report query misses the fields its type needs.
var ErrInvalidReportQuery = errors.New("invalid report query")

// Filter validates the query and resolves its date range. An empty type means "last".
func (q ReportQuery) Filter() (ReportFilter, error) {
	f := ReportFilter{Type: q.Type, SubjectID: q.SubjectID}
	if f.Type == "" {
		f.Type = ReportLast
	}

	switch f.Type {
	case ReportSubject:
		if q.SubjectID <= 0 {
			return f, ErrInvalidReportQuery
		}
	case ReportDate:
		from, err := time.Parse(time.DateOnly, q.From)
		if err != nil {
			return f, ErrInvalidReportQuery
		}
		to, err := time.Parse(time.DateOnly, q.To)
		if err != nil || to.Before(from) {
			return f, ErrInvalidReportQuery
		}
		f.From = from
		f.To = to.AddDate(0, 0, 1)
	}
	return f, nil
}

// ReportEntry is one historical result as shown on the dashboard.
type ReportEntry struct {
	ID          int64     `json:"id"`
	SubjectID   int       `json:"subjectId"`
	SubjectName string    `json:"subject"`
	Date        string    `json:"date"`
	Correct     int       `json:"correct"`
	Wrong       int       `json:"wrong"`
	Total       int       `json:"total"`
	Percentage  float64   `json:"percentage"`
	Message     string    `json:"message"`
	TimeTaken   string    `json:"timeTaken"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ReportsResponse is the success body of GET /api/reports.
type ReportsResponse struct {
	Success bool          `json:"success"`
	Reports []ReportEntry `json:"reports"`
}

// SubjectStats aggregates a student's attempts in one subject.
type SubjectStats struct {
	SubjectID      int       `json:"subjectId"`
	SubjectName    string    `json:"subject"`
	Attempts       int       `json:"attempts"`
	TotalCorrect   int       `json:"totalCorrect"`
	TotalGraded    int       `json:"totalGraded"`
	BestPercentage float64   `json:"bestPercentage"`
	LastAttemptAt  time.Time `json:"lastAttemptAt"`
}

// AveragePercentage is the share of all graded answers that were correct.
func (s SubjectStats) AveragePercentage() float64 {
	return Percentage(s.TotalCorrect, s.TotalGraded)
}

// ReportSummary is the success body of GET /api/reports/summary.
type ReportSummary struct {
	Success bool           `json:"success"`
	Last    *ReportEntry   `json:"last,omitempty"`
	Stats   []SubjectStats `json:"stats"`
}

// ResultEvent is queued for the stats worker and published on the results feed.
type ResultEvent struct {
	ResultID   int64     `json:"result_id"`
	StudentID  int       `json:"student_id"`
	SubjectID  int       `json:"subject_id"`
	ClassID    string    `json:"class_id"`
	Correct    int       `json:"correct"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	GradedAt   time.Time `json:"graded_at"`
	// Attempts counts failed stats recomputes for this event.
	Attempts int `json:"attempts,omitempty"`
}

// Event builds the queue/feed payload for a persisted result.
func (r *GradingResult) Event() ResultEvent {
	return ResultEvent{
		ResultID:   r.ID,
		StudentID:  r.StudentID,
		SubjectID:  r.SubjectID,
		ClassID:    r.ClassID,
		Correct:    r.Correct,
		Total:      r.Total,
		Percentage: r.Percentage,
		GradedAt:   r.CreatedAt,
	}
}
