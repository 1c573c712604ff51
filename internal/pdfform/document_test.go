package pdfform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := Load([]byte("not a pdf"))
	require.Error(t, err)

	_, err = Load(nil)
	require.Error(t, err)
}

func TestEscapeString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "MARIA", "MARIA"},
		{"parentheses", "Name(s)", `Name\(s\)`},
		{"backslash", `a\b`, `a\\b`},
		{"carriage return dropped", "A\r\nB", "A\nB"},
		{"newline kept", "A\nB", "A\nB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeString(tt.input))
		})
	}
}

func TestRewriteFontSize(t *testing.T) {
	tests := []struct {
		name     string
		da       string
		expected string
	}{
		{"auto size replaced", "/Helv 0 Tf 0 g", "/Helv 10 Tf 0 g"},
		{"explicit size replaced", "/Helv 12 Tf 0 g", "/Helv 10 Tf 0 g"},
		{"no Tf operator untouched", "0 g", "0 g"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, rewriteFontSize(tt.da, 10))
		})
	}
}

func TestFieldTypeString(t *testing.T) {
	assert.Equal(t, "text", string(FieldTypeText))
	assert.Equal(t, "checkbox", string(FieldTypeCheckbox))
	assert.Equal(t, "radio", string(FieldTypeRadio))
}
