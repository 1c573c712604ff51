package filler

import (
	"strings"

	"github.com/docupipe/registrofill/internal/fields"
	"github.com/docupipe/registrofill/internal/normalize"
)

// dateKeyHints flag a canonical key as date-bearing by name.
var dateKeyHints = []string{"fecha", "date", "dob"}

// knownDateKeys are date-bearing keys whose names carry no hint token.
var knownDateKeys = map[string]bool{
	"nacimiento": true,
}

func isDateKey(key string) bool {
	lower := strings.ToLower(key)
	for _, hint := range dateKeyHints {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return knownDateKeys[lower]
}

// dateFieldVariants are the split day/month/year field-name families tried
// when decomposing a date: unprefixed, birth-prefixed, registration-prefixed
// and the Spanish unprefixed family.
var dateFieldVariants = [][3]string{
	{"day", "month", "year"},
	{"birth_day", "birth_month", "birth_year"},
	{"reg_day", "reg_month", "reg_year"},
	{"dia", "mes", "ano"},
}

// fillDateParts parses value as a date and attempts every split-field family
// independently. Families the template does not expose are skipped silently.
func (f *Filler) fillDateParts(value string) {
	d := normalize.ParseDate(value)
	if d == nil {
		return
	}
	for _, variant := range dateFieldVariants {
		f.writeLower(variant[0], d.Day)
		f.writeLower(variant[1], d.Month)
		f.writeLower(variant[2], d.Year)
	}
}

// fillDefaults tries the static synonym table: each candidate is matched
// against the vocabulary exactly (case-insensitive) and then by normalized
// name, which absorbs apostrophe and quote-style variance.
func (f *Filler) fillDefaults(key, value string) {
	candidates, ok := defaultSynonyms[key]
	if !ok {
		return
	}
	for _, candidate := range candidates {
		if f.writeLower(candidate, value) {
			continue
		}
		if actual, ok := f.nindex[normalizeName(candidate)]; ok {
			f.write(actual, value)
		}
	}
}

// fillFuzzy is the final fallback: both the key and every field name are
// reduced to lowercase alphanumerics, and an exact or containment match
// claims the first field that accepts the write.
func (f *Filler) fillFuzzy(key, value string) {
	nk := normalizeName(key)
	if nk == "" {
		return
	}
	for _, name := range f.names {
		nn := normalizeName(name)
		if nn == "" {
			continue
		}
		if nn == nk || strings.Contains(nn, nk) || strings.Contains(nk, nn) {
			if f.write(name, value) {
				return
			}
		}
	}
}

// birthPlaceSourceKeys are tried in order; the first non-blank value feeds
// the place-of-birth pass.
var birthPlaceSourceKeys = []string{
	"birth_place_combined",
	"lugar_nacimiento",
	"pais_nacimiento",
	"departamento_nacimiento",
	"municipio_nacimiento",
}

var birthPlaceFieldTokens = []string{"place", "lugar", "country", "pais", "birth", "nacimiento"}

var datePartTokens = []string{"day", "month", "year", "date", "dia", "mes", "ano", "fecha"}

// fillBirthPlace is a dedicated pass over the whole vocabulary for anything
// resembling a place-of-birth field. Place of birth is the single field most
// prone to mapping gaps, so it gets its own net ahead of the generic cascade.
// Registry fields are excluded so registration data never inherits it.
func (f *Filler) fillBirthPlace(data *fields.Set) {
	var value string
	for _, key := range birthPlaceSourceKeys {
		if data.Has(key) {
			value = data.Get(key)
			break
		}
	}
	if value == "" {
		return
	}

	for _, name := range f.names {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "registro") || strings.Contains(lower, "registry") {
			continue
		}
		if !containsAny(lower, birthPlaceFieldTokens) {
			continue
		}
		if containsAny(lower, datePartTokens) {
			continue
		}
		f.write(name, value)
	}
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}

// normalizeName strips every non-alphanumeric rune and lowercases the rest.
func normalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
