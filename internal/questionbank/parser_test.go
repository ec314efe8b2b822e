package questionbank

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows ...[]string) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

var header = []string{"Subject", "Class", "Question", "Option_A", "Option_B", "Option_C", "Option_D", "Answer", "Active"}

func TestParse(t *testing.T) {
	buf := workbook(t,
		header,
		[]string{"Geography", "", "Capital of France?", "London", "Paris", "Rome", "Berlin", "B", ""},
		[]string{"Geography", "9", "Largest ocean?", "Pacific", "Atlantic", "", "", "Pacific", "false"},
		[]string{"", "", "", "", "", "", "", "", ""},
		[]string{"Chemistry", "", " Formula of water? ", "H2O", "CO2", "", "", "a", "yes"},
	)

	res, err := Parse(buf)

	require.NoError(t, err)
	require.Len(t, res.Rows, 2, "%v", res.Problems)
	require.Len(t, res.Problems, 1)
	assert.Equal(t, 5, res.Problems[0].Line)

	first := res.Rows[0]
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "Geography", first.Subject)
	assert.Equal(t, "Paris", first.Question.CorrectAnswer)
	assert.Nil(t, first.Question.ClassID)
	assert.True(t, first.Question.IsActive)

	second := res.Rows[1]
	assert.Equal(t, "Pacific", second.Question.CorrectAnswer)
	require.NotNil(t, second.Question.ClassID)
	assert.Equal(t, "9", *second.Question.ClassID)
	assert.False(t, second.Question.IsActive)

	assert.Equal(t, []string{"Geography"}, res.Subjects())
}

func TestParse_RowProblems(t *testing.T) {
	rows := [][]string{
		{"Maths", "", "2+2?", "4", "5", "", "", "C", ""},
		{"Maths", "", "2+3?", "5", "6", "", "", "seven", ""},
		{"Maths", "", "", "1", "2", "", "", "A", ""},
		{"", "", "orphan", "1", "2", "", "", "A", ""},
		{"Maths", "", "gap", "1", "2", "", "4", "A", ""},
		{"Maths", "", "flag", "1", "2", "", "", "A", "maybe"},
	}
	for i, row := range rows {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			res, err := Parse(workbook(t, header, row))

			require.NoError(t, err)
			assert.Empty(t, res.Rows)
			require.Len(t, res.Problems, 1)
			assert.Equal(t, 2, res.Problems[0].Line)
			assert.True(t, strings.HasPrefix(res.Problems[0].Error(), "row 2: "))
		})
	}
}

func TestParse_InvalidFiles(t *testing.T) {
	_, err := Parse(workbook(t, []string{"subject", "question", "option_a", "option_b"}, []string{"x", "y", "1", "2"}))
	assert.ErrorIs(t, err, ErrInvalidFileFormat)

	_, err = Parse(workbook(t, header))
	assert.ErrorIs(t, err, ErrInvalidFileFormat)

	_, err = Parse(strings.NewReader("not a zip"))
	assert.Error(t, err)
}
