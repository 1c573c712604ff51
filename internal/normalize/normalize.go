// Package normalize canonicalizes raw extracted values and derives composite
// fields from them. Every function in this package is pure: no I/O, no
// randomness, and no error paths. Unparseable input degrades to omission of
// the derived value, never to invented data.
package normalize

import (
	"strings"
)

// Date holds the components of a parsed calendar date as display strings.
// Day is zero-padded to two digits; Month is the two-digit month number.
type Date struct {
	Day   string
	Month string
	Year  string
}

// monthPrefixes maps the first three letters of Spanish and English month
// names to the two-digit month number. "set" covers the "setiembre" variant.
var monthPrefixes = map[string]string{
	"ene": "01", "jan": "01",
	"feb": "02",
	"mar": "03",
	"abr": "04", "apr": "04",
	"may": "05",
	"jun": "06",
	"jul": "07",
	"ago": "08", "aug": "08",
	"sep": "09", "set": "09",
	"oct": "10",
	"nov": "11",
	"dic": "12", "dec": "12",
}

// Month converts a month token to its two-digit number. Numeric input is
// zero-padded; Spanish and English month names are matched by their first
// three letters, case-insensitively. Unrecognized input is returned unchanged.
func Month(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return raw
	}
	if isDigits(v) {
		if len(v) == 1 {
			return "0" + v
		}
		return v
	}
	lower := strings.ToLower(v)
	if len(lower) >= 3 {
		if num, ok := monthPrefixes[lower[:3]]; ok {
			return num
		}
	}
	return raw
}

// ParseDate parses the date formats seen on registry documents:
// DD/MM/YYYY, DD-MM-YYYY, YYYY-MM-DD and YYYY/MM/DD (detected by which
// segment has four characters), plus a space-separated fallback that strips
// the Spanish connector words "de" and "del" ("19 de agosto de 2000").
// Returns nil when fewer than three components resolve.
func ParseDate(raw string) *Date {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}

	for _, sep := range []string{"/", "-"} {
		if !strings.Contains(v, sep) {
			continue
		}
		parts := strings.Split(v, sep)
		if len(parts) != 3 {
			return nil
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts[0]) == 4 {
			return newDate(parts[2], parts[1], parts[0])
		}
		return newDate(parts[0], parts[1], parts[2])
	}

	tokens := make([]string, 0, 3)
	for _, tok := range strings.Fields(v) {
		switch strings.ToLower(tok) {
		case "de", "del":
			continue
		}
		tokens = append(tokens, tok)
	}
	if len(tokens) != 3 {
		return nil
	}

	day, month, year := tokens[0], tokens[1], tokens[2]
	if !isDigits(day) && isDigits(month) {
		// month-name-first layout, e.g. "agosto 19 2000"
		day, month = month, day
	}
	return newDate(day, month, year)
}

func newDate(day, month, year string) *Date {
	if day == "" || month == "" || year == "" {
		return nil
	}
	return &Date{Day: padDay(day), Month: Month(month), Year: year}
}

func padDay(day string) string {
	if len(day) == 1 {
		return "0" + day
	}
	return day
}

// IsAlphanumeric reports whether the value contains at least one ASCII
// letter. It disambiguates an alphanumeric identifier from a purely numeric
// one when two competing sources hold the same logical identifier.
func IsAlphanumeric(value string) bool {
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DigitRun returns the first contiguous run of digits in s, or "".
func DigitRun(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}

// digitRunOfLen reports whether s contains a contiguous digit run of exactly n.
func digitRunOfLen(s string, n int) bool {
	run := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			run++
			continue
		}
		if run == n {
			return true
		}
		run = 0
	}
	return run == n
}
