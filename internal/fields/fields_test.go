package fields

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValuePresence(t *testing.T) {
	assert.True(t, String("MARIA").Present())
	assert.False(t, String("MARIA").Blank())

	assert.False(t, Missing().Present())
	assert.True(t, Missing().Blank())

	// Present but whitespace-only counts as blank.
	assert.True(t, String("   ").Present())
	assert.True(t, String("   ").Blank())
}

func TestSetHasAndGet(t *testing.T) {
	s := FromMap(map[string]string{
		"nombres": "MARIA JOSE",
		"empty":   "",
	})

	assert.True(t, s.Has("nombres"))
	assert.False(t, s.Has("empty"))
	assert.False(t, s.Has("absent"))
	assert.Equal(t, "MARIA JOSE", s.Get("nombres"))
	assert.Equal(t, "", s.Get("absent"))

	v := s.Lookup("empty")
	assert.True(t, v.Present())
	assert.True(t, v.Blank())
}

func TestFromAnyCoercion(t *testing.T) {
	s := FromAny(map[string]any{
		"text":   "hello",
		"number": float64(42),
		"frac":   float64(2.5),
		"flag":   true,
		"lines":  []any{"A", "B"},
		"null":   nil,
	})

	assert.Equal(t, "hello", s.Get("text"))
	assert.Equal(t, "42", s.Get("number"))
	assert.Equal(t, "2.5", s.Get("frac"))
	assert.Equal(t, "true", s.Get("flag"))
	assert.Equal(t, "A\nB", s.Get("lines"))
	assert.False(t, s.Has("null"))
}

func TestMergeBlankNeverOverwrites(t *testing.T) {
	base := FromMap(map[string]string{"nombres": "MARIA", "sexo": ""})
	other := FromMap(map[string]string{"nombres": "", "sexo": "F", "extra": "x"})

	base.Merge(other)

	assert.Equal(t, "MARIA", base.Get("nombres"))
	assert.Equal(t, "F", base.Get("sexo"))
	assert.Equal(t, "x", base.Get("extra"))
}

func TestCloneIsIndependent(t *testing.T) {
	orig := FromMap(map[string]string{"a": "1"})
	clone := orig.Clone()
	clone.Set("a", "2")
	clone.Set("b", "3")

	assert.Equal(t, "1", orig.Get("a"))
	assert.False(t, orig.Has("b"))
}

func TestKeysSorted(t *testing.T) {
	s := FromMap(map[string]string{"c": "3", "a": "1", "b": "2"})
	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
}

func TestJSONRoundTrip(t *testing.T) {
	s := FromMap(map[string]string{"nombres": "MARIA", "notas": "A\nB"})

	data, err := json.Marshal(s)
	require.NoError(t, err)

	restored := New()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.True(t, s.Equal(restored))
}
