// Package questionbank reads question banks prepared as spreadsheets.
//
// The first sheet must start with a header row naming at least the columns
// subject, question, option_a, option_b and answer. Optional columns are
// class, option_c, option_d and active. The answer is either an option
// letter (A-D) or the exact text of one of the options.
package questionbank

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pupilnest/pupilnest-backend/internal/model"
	"github.com/xuri/excelize/v2"
)

var ErrInvalidFileFormat = errors.New("invalid question bank file")

var requiredColumns = []string{"subject", "question", "option_a", "option_b", "answer"}

// Row is one parsed question together with the subject it belongs to.
type Row struct {
	Line     int
	Subject  string
	Question model.Question
}

// RowError explains why a line was skipped.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

// Result holds the accepted rows and the problems of the skipped ones.
type Result struct {
	Rows     []Row
	Problems []RowError
}

// Subjects returns the distinct subject names in first-seen order.
func (r *Result) Subjects() []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range r.Rows {
		if !seen[row.Subject] {
			seen[row.Subject] = true
			out = append(out, row.Subject)
		}
	}
	return out
}

// Parse reads the first sheet of an .xlsx workbook.
func Parse(r io.Reader) (*Result, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrInvalidFileFormat
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: need a header and at least one question", ErrInvalidFileFormat)
	}

	columns := make(map[string]int)
	for i, col := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrInvalidFileFormat, col)
		}
	}

	res := &Result{}
	for i, cells := range rows[1:] {
		line := i + 2
		if blank(cells) {
			continue
		}
		row, err := parseRow(cells, columns)
		if err != nil {
			res.Problems = append(res.Problems, RowError{Line: line, Err: err})
			continue
		}
		row.Line = line
		res.Rows = append(res.Rows, *row)
	}
	return res, nil
}

func parseRow(cells []string, columns map[string]int) (*Row, error) {
	get := func(name string) string {
		if idx, ok := columns[name]; ok && idx < len(cells) {
			return strings.TrimSpace(cells[idx])
		}
		return ""
	}

	q := model.Question{
		QuestionText: get("question"),
		OptionA:      get("option_a"),
		OptionB:      get("option_b"),
		OptionC:      get("option_c"),
		OptionD:      get("option_d"),
		IsActive:     true,
	}
	subject := get("subject")
	if subject == "" {
		return nil, errors.New("subject is required")
	}
	if q.QuestionText == "" {
		return nil, errors.New("question is required")
	}
	if q.OptionA == "" || q.OptionB == "" {
		return nil, errors.New("options A and B are required")
	}
	if q.OptionC == "" && q.OptionD != "" {
		return nil, errors.New("option D given without option C")
	}

	answer, err := resolveAnswer(get("answer"), q.ForStudent())
	if err != nil {
		return nil, err
	}
	q.CorrectAnswer = answer

	if class := get("class"); class != "" {
		q.ClassID = &class
	}
	if active := get("active"); active != "" {
		v, err := strconv.ParseBool(strings.ToLower(active))
		if err != nil {
			return nil, fmt.Errorf("invalid active value %q", active)
		}
		q.IsActive = v
	}

	return &Row{Subject: subject, Question: q}, nil
}

// resolveAnswer maps a letter or option text onto the option text graded against.
func resolveAnswer(answer string, q model.QuestionForStudent) (string, error) {
	if answer == "" {
		return "", errors.New("answer is required")
	}
	for i, label := range model.OptionLabels {
		if strings.EqualFold(answer, label) {
			text, ok := q.OptionAt(i)
			if !ok {
				return "", fmt.Errorf("answer %s points at an empty option", label)
			}
			return text, nil
		}
	}
	for _, text := range q.Options() {
		if text != "" && text == answer {
			return text, nil
		}
	}
	return "", fmt.Errorf("answer %q matches no option", answer)
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
