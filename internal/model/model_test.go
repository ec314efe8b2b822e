package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBand(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{100, BandExcellent},
		{80, BandExcellent},
		{79.99, BandGood},
		{50, BandGood},
		{49.9, BandKeepPracticing},
		{0, BandKeepPracticing},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Band(tt.pct), "pct=%v", tt.pct)
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 50.0, Percentage(1, 2))
	assert.InDelta(t, 66.666, Percentage(2, 3), 0.001)
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "10:00", FormatClock(600))
	assert.Equal(t, "00:09", FormatClock(9))
	assert.Equal(t, "01:05", FormatClock(65))
	assert.Equal(t, "00:00", FormatClock(-3))
}

func TestAnswerMap(t *testing.T) {
	m := AnswerMap{3: "Paris", 12: "4"}
	assert.Equal(t, map[string]string{"3": "Paris", "12": "4"}, m.Wire())

	c := m.Clone()
	c[3] = "London"
	assert.Equal(t, "Paris", m[3])
}

func TestOptionAt(t *testing.T) {
	q := QuestionForStudent{ID: 1, QuestionText: "Capital?", OptionA: "Paris", OptionB: "London"}

	text, ok := q.OptionAt(1)
	assert.True(t, ok)
	assert.Equal(t, "London", text)

	_, ok = q.OptionAt(2)
	assert.False(t, ok, "empty slot")
	_, ok = q.OptionAt(4)
	assert.False(t, ok)
	_, ok = q.OptionAt(-1)
	assert.False(t, ok)
}

func TestForStudent(t *testing.T) {
	q := Question{ID: 9, QuestionText: "2+2?", OptionA: "3", OptionB: "4", CorrectAnswer: "4"}
	s := q.ForStudent()
	assert.Equal(t, 9, s.ID)
	assert.Equal(t, [4]string{"3", "4", "", ""}, s.Options())
}

func TestReportQueryFilter(t *testing.T) {
	t.Run("defaults to last", func(t *testing.T) {
		f, err := ReportQuery{}.Filter()
		require.NoError(t, err)
		assert.Equal(t, ReportLast, f.Type)
	})

	t.Run("subject needs id", func(t *testing.T) {
		_, err := ReportQuery{Type: ReportSubject}.Filter()
		assert.ErrorIs(t, err, ErrInvalidReportQuery)

		f, err := ReportQuery{Type: ReportSubject, SubjectID: 4}.Filter()
		require.NoError(t, err)
		assert.Equal(t, 4, f.SubjectID)
	})

	t.Run("date range is inclusive of the last day", func(t *testing.T) {
		f, err := ReportQuery{Type: ReportDate, From: "2026-03-01", To: "2026-03-31"}.Filter()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), f.From)
		assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), f.To)
	})

	t.Run("date range rejects inverted and missing bounds", func(t *testing.T) {
		_, err := ReportQuery{Type: ReportDate, From: "2026-03-10", To: "2026-03-01"}.Filter()
		assert.ErrorIs(t, err, ErrInvalidReportQuery)
		_, err = ReportQuery{Type: ReportDate, From: "2026-03-10"}.Filter()
		assert.ErrorIs(t, err, ErrInvalidReportQuery)
	})
}

func TestGradingResultResponse(t *testing.T) {
	r := &GradingResult{ID: 5, Correct: 3, Wrong: 1, Total: 4, Percentage: 75, Message: BandGood}
	resp := r.Response()
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Score)
	assert.Equal(t, 4, resp.Total)
	assert.Equal(t, int64(5), resp.ResultID)
}
