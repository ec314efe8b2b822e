package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pupilnest/pupilnest-backend/internal/examsession"
	"github.com/pupilnest/pupilnest-backend/internal/model"
)

const helpText = "commands: 1-4 or a-d select  n next  p previous  s submit  q quit  ? help"

// screen writes session events to the terminal. Events arrive from the ticker
// and submit goroutines as well as the input loop, so writes are serialized.
type screen struct {
	mu  sync.Mutex
	out io.Writer
}

func newScreen(out io.Writer) *screen {
	return &screen{out: out}
}

func (s *screen) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

// handle is the controller listener.
func (s *screen) handle(ev examsession.Event) {
	snap := ev.Snapshot
	switch ev.Type {
	case examsession.EventActivated:
		s.printf("Exam started: %d questions, %s on the clock.\n%s\n\n", snap.Total, model.FormatClock(snap.Remaining), helpText)
		s.printf("%s", renderQuestion(snap))
	case examsession.EventUpdated:
		s.printf("%s", renderQuestion(snap))
	case examsession.EventTick:
		if announceTick(snap.Remaining) {
			s.printf("  %s left\n", model.FormatClock(snap.Remaining))
		}
	case examsession.EventSubmitting:
		if snap.Remaining == 0 {
			s.printf("\nTime is up. Submitting %d answers...\n", snap.Answered())
		} else {
			s.printf("\nSubmitting %d answers...\n", snap.Answered())
		}
	case examsession.EventSubmitFailed:
		s.printf("Submission failed: %v\nYour answers are kept. Type s to try again.\n", ev.Err)
	case examsession.EventCompleted:
		s.printf("%s", renderResult(snap.Result))
	case examsession.EventAborted:
		s.printf("Exam ended: %v\n", ev.Err)
	}
}

// announceTick limits countdown output to whole minutes and the final ten seconds.
func announceTick(remaining int) bool {
	return remaining > 0 && (remaining%60 == 0 || remaining <= 10)
}

func renderQuestion(snap examsession.Snapshot) string {
	if snap.Current == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Question %d/%d  [answered %d, %s left]\n", snap.Index+1, snap.Total, snap.Answered(), model.FormatClock(snap.Remaining))
	fmt.Fprintf(&b, "%s\n", snap.Current.QuestionText)
	for i, label := range model.OptionLabels {
		text, ok := snap.Current.OptionAt(i)
		if !ok {
			continue
		}
		mark := " "
		if snap.Selected != "" && text == snap.Selected {
			mark = "*"
		}
		fmt.Fprintf(&b, " %s %d) %s. %s\n", mark, i+1, label, text)
	}
	b.WriteString("> ")
	return b.String()
}

func renderResult(res *model.SubmitExamResponse) string {
	if res == nil {
		return ""
	}
	return fmt.Sprintf("\nResult: %d/%d correct (%.1f%%), %s\n", res.Score, res.Total, res.Percentage, res.Message)
}

// historyRows caps the attempts listed after a result.
const historyRows = 5

// renderHistory lists the newest attempts first, as the API returns them.
func renderHistory(reports []model.ReportEntry, limit int) string {
	if len(reports) == 0 {
		return ""
	}
	if len(reports) > limit {
		reports = reports[:limit]
	}
	var b strings.Builder
	b.WriteString("\nRecent attempts:\n")
	for _, r := range reports {
		fmt.Fprintf(&b, "  %s  %d/%d  %5.1f%%  %s\n", r.Date, r.Correct, r.Total, r.Percentage, r.Message)
	}
	return b.String()
}

// command is one parsed line of user input.
type command struct {
	kind   byte
	option int
}

// parseCommand understands 1-4, a-d, n, p, s, q and ?.
func parseCommand(line string) (command, bool) {
	line = strings.ToLower(strings.TrimSpace(line))
	if len(line) != 1 {
		return command{}, false
	}
	c := line[0]
	switch {
	case c >= '1' && c <= '4':
		return command{kind: 'o', option: int(c - '1')}, true
	case c >= 'a' && c <= 'd':
		return command{kind: 'o', option: int(c - 'a')}, true
	case strings.IndexByte("npsq?", c) >= 0:
		return command{kind: c}, true
	}
	return command{}, false
}
