package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDeterministic(t *testing.T) {
	names := []string{
		"reg_names", "reg_surnames", "notes1", "notes3", "notes2",
		"nuip", "Sex", "witness1_surnames_names", "birth_day",
	}

	first := Resolve(names)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Resolve(names), "run %d differed", i)
	}
}

func TestResolveRoleExclusion(t *testing.T) {
	m := Resolve([]string{"reg_names", "witness1_surnames_names", "declarante_nombres"})

	require.Contains(t, m, "nombres")
	assert.Equal(t, []string{"reg_names"}, m["nombres"])
}

func TestResolveNumericSuffixOrdering(t *testing.T) {
	m := Resolve([]string{"notes10", "notes2", "notes1", "notes"})

	require.Contains(t, m, "notes_combined")
	assert.Equal(t, []string{"notes", "notes1", "notes2", "notes10"}, m["notes_combined"])
}

func TestResolveRegistryLocationExcludesBirthFields(t *testing.T) {
	m := Resolve([]string{"registry_office", "birth_registry_office"})

	require.Contains(t, m, "registry_location_combined")
	assert.Equal(t, []string{"registry_office"}, m["registry_location_combined"])
}

func TestResolveUnmatchedKeysAbsent(t *testing.T) {
	m := Resolve([]string{"totally_unrelated_field"})
	assert.NotContains(t, m, "nombres")
	assert.NotContains(t, m, "fecha_nacimiento")
}

func TestResolveCaseInsensitive(t *testing.T) {
	m := Resolve([]string{"NUIP", "Sexo"})

	require.Contains(t, m, "nuip_resolved")
	assert.Equal(t, []string{"NUIP"}, m["nuip_resolved"])
	require.Contains(t, m, "sexo")
	assert.Equal(t, []string{"Sexo"}, m["sexo"])
}

func TestMergeOverridesResolverWins(t *testing.T) {
	derived := Mapping{"nombres": {"reg_names"}}
	overrides := map[string][]string{
		"nombres":    {"custom_names"},
		"custom_key": {"field_a", "field_a", "field_b"},
	}

	merged := MergeOverrides(derived, overrides)

	assert.Equal(t, []string{"reg_names"}, merged["nombres"])
	assert.Equal(t, []string{"field_a", "field_b"}, merged["custom_key"])
}

func TestMergeOverridesNilInputs(t *testing.T) {
	merged := MergeOverrides(Mapping{"sexo": {"Sex"}}, nil)
	assert.Equal(t, []string{"Sex"}, merged["sexo"])

	merged = MergeOverrides(nil, map[string][]string{"sexo": {"Sex"}})
	assert.Equal(t, []string{"Sex"}, merged["sexo"])
}
