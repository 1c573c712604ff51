package filler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizePunctuation(t *testing.T) {
	assert.Equal(t, "'MARIA'", Sanitize("‘MARIA’"))
	assert.Equal(t, `"CALI"`, Sanitize("“CALI”"))
	assert.Equal(t, "A - B", Sanitize("A – B"))
	assert.Equal(t, "A - B", Sanitize("A — B"))
	assert.Equal(t, "etc...", Sanitize("etc…"))
	assert.Equal(t, "- item", Sanitize("• item"))
	assert.Equal(t, `"quote"`, Sanitize("«quote»"))
}

func TestSanitizeStripsNonLatin1(t *testing.T) {
	assert.Equal(t, "PEÑA", Sanitize("PEÑA"))
	assert.Equal(t, "CALI ", Sanitize("CALI 中文"))
}

func TestSanitizeKeepsNewlinesAndTabs(t *testing.T) {
	assert.Equal(t, "A\nB\tC", Sanitize("A\nB\tC"))
	assert.Equal(t, "AB", Sanitize("A\x00\x07B"))
}

func TestSanitizeNonBreakingSpace(t *testing.T) {
	assert.Equal(t, "A B", Sanitize("A B"))
}
