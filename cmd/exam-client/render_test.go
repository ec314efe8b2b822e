package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/pupilnest/pupilnest-backend/internal/examsession"
	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in    string
		want  command
		valid bool
	}{
		{"1\n", command{kind: 'o', option: 0}, true},
		{"4", command{kind: 'o', option: 3}, true},
		{"B", command{kind: 'o', option: 1}, true},
		{" n ", command{kind: 'n'}, true},
		{"p", command{kind: 'p'}, true},
		{"s", command{kind: 's'}, true},
		{"q", command{kind: 'q'}, true},
		{"?", command{kind: '?'}, true},
		{"5", command{}, false},
		{"next", command{}, false},
		{"", command{}, false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.in)
		assert.Equal(t, tt.valid, ok, "%q", tt.in)
		assert.Equal(t, tt.want, got, "%q", tt.in)
	}
}

func TestRenderQuestion_MarksSelectionAndSkipsEmptySlots(t *testing.T) {
	snap := examsession.Snapshot{
		Index: 1, Total: 3, Remaining: 75,
		Current:  &model.QuestionForStudent{ID: 2, QuestionText: "Capital of France?", OptionA: "London", OptionB: "Paris"},
		Selected: "Paris",
		Answers:  model.AnswerMap{1: "x", 2: "Paris"},
	}

	out := renderQuestion(snap)

	assert.Contains(t, out, "Question 2/3  [answered 2, 01:15 left]")
	assert.Contains(t, out, "   1) A. London")
	assert.Contains(t, out, " * 2) B. Paris")
	assert.NotContains(t, out, "C.")
}

func TestAnnounceTick(t *testing.T) {
	assert.True(t, announceTick(540))
	assert.True(t, announceTick(10))
	assert.False(t, announceTick(59))
	assert.False(t, announceTick(0))
}

func TestScreen_ReportsFailureAndResult(t *testing.T) {
	var b strings.Builder
	s := newScreen(&b)

	s.handle(examsession.Event{Type: examsession.EventSubmitFailed, Err: errors.New("submission failed: HTTP 500")})
	s.handle(examsession.Event{Type: examsession.EventCompleted, Snapshot: examsession.Snapshot{
		Result: &model.SubmitExamResponse{Score: 1, Total: 2, Percentage: 50, Message: "Good"},
	}})

	assert.Contains(t, b.String(), "Type s to try again")
	assert.Contains(t, b.String(), "Result: 1/2 correct (50.0%), Good")
}

func TestRenderHistory(t *testing.T) {
	assert.Empty(t, renderHistory(nil, 5))

	reports := []model.ReportEntry{
		{Date: "2026-10-02", Correct: 8, Total: 10, Percentage: 80, Message: model.BandExcellent},
		{Date: "2026-10-01", Correct: 4, Total: 10, Percentage: 40, Message: model.BandKeepPracticing},
		{Date: "2026-09-30", Correct: 5, Total: 10, Percentage: 50, Message: model.BandGood},
	}
	out := renderHistory(reports, 2)

	assert.Contains(t, out, "2026-10-02  8/10   80.0%  Excellent")
	assert.Contains(t, out, "2026-10-01  4/10   40.0%  Keep Practicing")
	assert.NotContains(t, out, "2026-09-30")
}
