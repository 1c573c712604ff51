package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single digit padded", "8", "08"},
		{"two digits unchanged", "12", "12"},
		{"spanish full name", "agosto", "08"},
		{"spanish short name", "ene", "01"},
		{"spanish septiembre variant", "setiembre", "09"},
		{"english name", "august", "08"},
		{"mixed case", "Agosto", "08"},
		{"unknown text unchanged", "brumaire", "brumaire"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Month(tt.input))
		})
	}
}

func TestParseDateSlashAndDash(t *testing.T) {
	d := ParseDate("19/08/2000")
	require.NotNil(t, d)
	assert.Equal(t, "19", d.Day)
	assert.Equal(t, "08", d.Month)
	assert.Equal(t, "2000", d.Year)

	d = ParseDate("2000-08-19")
	require.NotNil(t, d)
	assert.Equal(t, "19", d.Day)
	assert.Equal(t, "08", d.Month)
	assert.Equal(t, "2000", d.Year)
}

func TestParseDateSpanishWords(t *testing.T) {
	d := ParseDate("19 de agosto de 2000")
	require.NotNil(t, d)
	assert.Equal(t, "19", d.Day)
	assert.Equal(t, "08", d.Month)
	assert.Equal(t, "2000", d.Year)

	// Month-first word order is recognized and swapped.
	d = ParseDate("agosto 19 2000")
	require.NotNil(t, d)
	assert.Equal(t, "19", d.Day)
	assert.Equal(t, "08", d.Month)
	assert.Equal(t, "2000", d.Year)
}

func TestParseDateUnparseable(t *testing.T) {
	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("2000"))
	assert.Nil(t, ParseDate("19/08"))
	assert.Nil(t, ParseDate("not a date at all"))
}

func TestIsAlphanumeric(t *testing.T) {
	assert.True(t, IsAlphanumeric("V2A0001156"))
	assert.False(t, IsAlphanumeric("1112083468"))
	assert.False(t, IsAlphanumeric(""))
}

func TestDigitRun(t *testing.T) {
	assert.Equal(t, "1234567", DigitRun("H 1234567"))
	assert.Equal(t, "2", DigitRun("V2A"))
	assert.Equal(t, "", DigitRun("ABC"))
}
