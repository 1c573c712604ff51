package normalize

import (
	"strings"

	"github.com/docupipe/registrofill/internal/fields"
)

// Derived and raw key names shared with the mapping and verification layers.
const (
	KeyNUIPTop      = "nuip_top"
	KeyNUIPBottom   = "nuip_bottom"
	KeyNUIP         = "nuip"
	KeyNUIPResolved = "nuip_resolved"

	KeyBirthDate        = "fecha_nacimiento"
	KeyRegistrationDate = "fecha_registro"

	KeyBirthPlaceCombined       = "birth_place_combined"
	KeyRegistryLocationCombined = "registry_location_combined"

	KeyNotesCombined = "notes_combined"
)

// A place string at least this long is assumed to already name the clinic or
// institution and is used verbatim instead of being assembled from parts.
const placeDetailThreshold = 30

const locationSeparator = " - "

// Normalize returns an enriched copy of s with all derived composite fields
// computed. It never removes or blanks existing keys, and running it twice
// over the same base input yields the same result.
func Normalize(s *fields.Set) *fields.Set {
	out := s.Clone()
	resolveIdentifier(out)
	deriveDateParts(out, KeyBirthDate, "birth_day", "birth_month", "birth_year")
	deriveDateParts(out, "birth_date", "birth_day", "birth_month", "birth_year")
	deriveDateParts(out, KeyRegistrationDate, "reg_day", "reg_month", "reg_year")
	deriveDateParts(out, "registration_date", "reg_day", "reg_month", "reg_year")
	deriveBirthPlace(out)
	deriveRegistryLocation(out)
	deriveFullName(out, "apellidos_padre", "nombres_padre", "father_full_name")
	deriveFullName(out, "apellidos_madre", "nombres_madre", "mother_full_name")
	ConsolidateNotes(out, DefaultBackfillRule)
	syncSerialNumber(out)
	return out
}

// resolveIdentifier picks one NUIP value from the three competing sources on
// a registry document: the alphanumeric form printed at the top, the numeric
// form printed at the bottom, and the legacy single field. The alphanumeric
// candidate wins; otherwise any non-empty primary; otherwise the legacy value.
func resolveIdentifier(s *fields.Set) {
	top := strings.TrimSpace(s.Get(KeyNUIPTop))
	bottom := strings.TrimSpace(s.Get(KeyNUIPBottom))
	legacy := strings.TrimSpace(s.Get(KeyNUIP))

	var resolved string
	switch {
	case IsAlphanumeric(top):
		resolved = top
	case IsAlphanumeric(bottom):
		resolved = bottom
	case top != "":
		resolved = top
	case bottom != "":
		resolved = bottom
	default:
		resolved = legacy
	}
	if resolved != "" {
		s.Set(KeyNUIPResolved, resolved)
	}
}

func deriveDateParts(s *fields.Set, srcKey, dayKey, monthKey, yearKey string) {
	if !s.Has(srcKey) {
		return
	}
	d := ParseDate(s.Get(srcKey))
	if d == nil {
		return
	}
	s.Set(dayKey, d.Day)
	s.Set(monthKey, d.Month)
	s.Set(yearKey, d.Year)
}

func deriveBirthPlace(s *fields.Set) {
	place := strings.TrimSpace(s.Get("lugar_nacimiento"))
	if len(place) > placeDetailThreshold {
		s.Set(KeyBirthPlaceCombined, place)
		return
	}
	joined := joinParts(s, "pais_nacimiento", "departamento_nacimiento", "municipio_nacimiento")
	switch {
	case joined != "":
		s.Set(KeyBirthPlaceCombined, joined)
	case place != "":
		s.Set(KeyBirthPlaceCombined, place)
	}
}

func deriveRegistryLocation(s *fields.Set) {
	joined := joinParts(s, "departamento_registro", "municipio_registro", "oficina_registro")
	if joined != "" {
		s.Set(KeyRegistryLocationCombined, joined)
	}
}

func joinParts(s *fields.Set, keys ...string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := strings.TrimSpace(s.Get(k)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, locationSeparator)
}

// deriveFullName concatenates surname and given-name parts with a single
// space, skipping either side when empty. Part order is never changed.
func deriveFullName(s *fields.Set, surnameKey, givenKey, dstKey string) {
	surname := strings.TrimSpace(s.Get(surnameKey))
	given := strings.TrimSpace(s.Get(givenKey))
	if surname == "" && given == "" {
		return
	}
	if surname == "" {
		s.Set(dstKey, given)
		return
	}
	if given == "" {
		s.Set(dstKey, surname)
		return
	}
	s.Set(dstKey, surname+" "+given)
}

// serialAliases are the keys that all refer to the same serial indicative
// number. When the number arrives embedded in a free-text label, the first
// digit run is mirrored into every alias.
var serialAliases = []string{"indicativo_serial", "serial_indicator", "serial"}

func syncSerialNumber(s *fields.Set) {
	for _, key := range serialAliases {
		v := strings.TrimSpace(s.Get(key))
		if v == "" {
			continue
		}
		run := DigitRun(v)
		if run == "" || run == v {
			continue
		}
		for _, alias := range serialAliases {
			s.Set(alias, run)
		}
		return
	}
}
