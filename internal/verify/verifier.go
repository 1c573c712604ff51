// Package verify compares a filled PDF against the extracted field set that
// produced it. It is a read-only diff: it reports matches, mismatches and
// unmapped keys, and never classifies the same key as two different outcomes.
package verify

import (
	"regexp"
	"strings"

	"github.com/docupipe/registrofill/internal/fields"
	"github.com/docupipe/registrofill/internal/pdfform"
)

// Match records an extracted value found in the PDF.
type Match struct {
	ExtractedKey string `json:"extractedKey"`
	PDFField     string `json:"pdfField"`
	Value        string `json:"value"`
}

// Mismatch records a field whose name aligned with a key but whose value did not.
type Mismatch struct {
	ExtractedKey  string `json:"extractedKey"`
	ExpectedValue string `json:"expectedValue"`
	PDFField      string `json:"pdfField"`
	ActualValue   string `json:"actualValue"`
}

// Unmapped records an extracted value found nowhere in the PDF.
type Unmapped struct {
	ExtractedKey  string `json:"extractedKey"`
	ExpectedValue string `json:"expectedValue"`
}

// Report is the full verification outcome for one document.
type Report struct {
	MatchCount    int        `json:"matchCount"`
	MismatchCount int        `json:"mismatchCount"`
	UnmappedCount int        `json:"unmappedCount"`
	Matches       []Match    `json:"matches"`
	Mismatches    []Mismatch `json:"mismatches"`
	Unmapped      []Unmapped `json:"unmapped"`
}

// Clean reports whether verification found no mismatches and no unmapped keys.
func (r *Report) Clean() bool {
	return r.MismatchCount == 0 && r.UnmappedCount == 0
}

var (
	lineKeyPattern = regexp.MustCompile(`_line\d+$`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// skippedKey filters derived and positional keys out of verification: they
// duplicate information already checked through their source keys, and
// counting them would double-report every derivation.
func skippedKey(key string) bool {
	for _, suffix := range []string{"_combined", "_resolved", "_top", "_raw"} {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return lineKeyPattern.MatchString(key)
}

// Verify diffs the extracted set against the fields read back from a filled
// PDF. Every non-blank, non-derived key lands in exactly one of the three
// report buckets.
func Verify(data *fields.Set, pdfFields []pdfform.Field) *Report {
	report := &Report{}

	type fieldEntry struct {
		name  string
		value string
		norm  string
	}
	entries := make([]fieldEntry, 0, len(pdfFields))
	for _, pf := range pdfFields {
		entries = append(entries, fieldEntry{
			name:  pf.Name,
			value: pf.Value,
			norm:  normText(pf.Value),
		})
	}

	for _, key := range data.Keys() {
		if skippedKey(key) {
			continue
		}
		expected := data.Get(key)
		if strings.TrimSpace(expected) == "" {
			continue
		}
		normExpected := normText(expected)

		// A value present anywhere in the document is a match, even when it
		// landed in a field the mapping did not predict. Containment counts in
		// both directions: a field may hold the expected value inside a larger
		// composite, or a truncated portion of it.
		matched := false
		for _, entry := range entries {
			if entry.norm == "" {
				continue
			}
			if entry.norm == normExpected ||
				strings.Contains(entry.norm, normExpected) ||
				strings.Contains(normExpected, entry.norm) {
				report.Matches = append(report.Matches, Match{
					ExtractedKey: key,
					PDFField:     entry.name,
					Value:        entry.value,
				})
				matched = true
				break
			}
		}
		if matched {
			report.MatchCount++
			continue
		}

		// Name-aligned fields with a different value are mismatches; the
		// value went somewhere, just not what was expected.
		nk := normName(key)
		aligned := false
		for _, entry := range entries {
			if normName(entry.name) != nk {
				continue
			}
			aligned = true
			report.Mismatches = append(report.Mismatches, Mismatch{
				ExtractedKey:  key,
				ExpectedValue: expected,
				PDFField:      entry.name,
				ActualValue:   entry.value,
			})
			break
		}
		if aligned {
			report.MismatchCount++
			continue
		}

		report.Unmapped = append(report.Unmapped, Unmapped{
			ExtractedKey:  key,
			ExpectedValue: expected,
		})
		report.UnmappedCount++
	}

	return report
}

// normText lowercases and collapses runs of whitespace so that line breaks
// introduced by the filler do not defeat value comparison.
func normText(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return whitespace.ReplaceAllString(s, " ")
}

// normName reduces a key or field name to lowercase alphanumerics.
func normName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}
