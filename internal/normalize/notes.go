package normalize

import (
	"strings"

	"github.com/docupipe/registrofill/internal/fields"
)

// RawNoteKeys are the keys that may carry free-text annotations, in the
// order their lines are collected. Once consolidation has run, their content
// lives in notes_combined and downstream consumers should prefer that key.
var RawNoteKeys = []string{"notas", "notes", "anotaciones", "espacio_notas"}

// noteSourceKeys appends notes_combined itself so that a previous
// consolidation (or a manual correction) is never lost.
var noteSourceKeys = append(append([]string{}, RawNoteKeys...), KeyNotesCombined)

// BackfillRule describes a marker line that should carry a numeric code and
// where to look for that code when the line arrives without it. The default
// rule reflects one observed certificate layout; treat it as replaceable
// data, not an invariant of the consolidation algorithm.
type BackfillRule struct {
	// Marker is the phrase, compared case-insensitively, that flags the line.
	Marker string
	// CodeLen is the exact length of the expected digit run.
	CodeLen int
	// AuxKeys are searched in order for the missing code.
	AuxKeys []string
}

// DefaultBackfillRule finds a "NUIP NUEVO" annotation missing its ten-digit
// number and recovers the number from the per-line note fields or the serial
// indicative field.
var DefaultBackfillRule = BackfillRule{
	Marker:  "NUIP NUEVO",
	CodeLen: 10,
	AuxKeys: []string{
		"notes_line1", "notes_line2", "notes_line3", "notes_line4",
		"notes_line5", "notes_line6", "notes_line7",
		"serial_indicator",
	},
}

// ConsolidateNotes gathers note lines from every note-bearing key, removes
// duplicates while preserving first-seen order, applies the backfill rule,
// and stores the result under notes_combined. A line that merely extends an
// already collected line (same text plus a trailing addition) replaces it in
// place, so that a backfilled line and its bare original never coexist.
func ConsolidateNotes(s *fields.Set, rule BackfillRule) {
	var lines []string
	for _, key := range noteSourceKeys {
		if !s.Has(key) {
			continue
		}
		for _, line := range strings.Split(s.Get(key), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			lines = addLine(lines, line)
		}
	}
	if len(lines) == 0 {
		return
	}
	lines = rule.apply(s, lines)
	s.Set(KeyNotesCombined, strings.Join(lines, "\n"))
}

func addLine(lines []string, line string) []string {
	for i, existing := range lines {
		if existing == line {
			return lines
		}
		if strings.HasPrefix(existing, line+" ") {
			return lines
		}
		if strings.HasPrefix(line, existing+" ") {
			lines[i] = line
			return lines
		}
	}
	return append(lines, line)
}

func (r BackfillRule) apply(s *fields.Set, lines []string) []string {
	if r.Marker == "" || r.CodeLen <= 0 {
		return lines
	}

	target := -1
	for i, line := range lines {
		if !strings.Contains(strings.ToUpper(line), strings.ToUpper(r.Marker)) {
			continue
		}
		if digitRunOfLen(line, r.CodeLen) {
			// the code is already attached somewhere; nothing to recover
			return lines
		}
		if target < 0 {
			target = i
		}
	}
	if target < 0 {
		return lines
	}

	code := r.findCode(s)
	if code == "" {
		return lines
	}
	lines[target] = lines[target] + " " + code
	return lines
}

// findCode returns the code only when exactly one distinct candidate exists
// across the auxiliary keys; conflicting candidates are left for a human.
func (r BackfillRule) findCode(s *fields.Set) string {
	var found string
	for _, key := range r.AuxKeys {
		if !s.Has(key) {
			continue
		}
		run := DigitRun(s.Get(key))
		if len(run) != r.CodeLen {
			continue
		}
		if found != "" && found != run {
			return ""
		}
		found = run
	}
	return found
}
