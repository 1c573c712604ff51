// Package filler applies a normalized field set to a loaded PDF form.
//
// Every physical field is written at most once per run: the first strategy
// to claim a field wins, and later, weaker matches cannot overwrite it. Each
// individual write is best-effort; a single field failure never aborts the
// document.
package filler

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/docupipe/registrofill/internal/fields"
	"github.com/docupipe/registrofill/internal/mapping"
	"github.com/docupipe/registrofill/internal/normalize"
)

// Form is the writable view of a loaded PDF form.
type Form interface {
	FieldNames() []string
	SetText(name, value string) error
}

// Result reports what a fill run accomplished.
type Result struct {
	// FilledCount is the number of successful field writes.
	FilledCount int
	// FilledFields lists the physical field names written, in write order.
	FilledFields []string
}

// Filler fills one form from one field set. Not reusable across documents.
type Filler struct {
	form   Form
	names  []string          // template order
	index  map[string]string // lowercased name -> actual name
	nindex map[string]string // normalized name -> actual name

	written map[string]bool
	result  Result
	log     *zap.Logger
}

// New builds a Filler over the given form.
func New(form Form, log *zap.Logger) *Filler {
	if log == nil {
		log = zap.NewNop()
	}
	f := &Filler{
		form:    form,
		names:   form.FieldNames(),
		index:   make(map[string]string),
		nindex:  make(map[string]string),
		written: make(map[string]bool),
		log:     log,
	}
	for _, name := range f.names {
		lower := strings.ToLower(name)
		if _, dup := f.index[lower]; !dup {
			f.index[lower] = name
		}
		norm := normalizeName(name)
		if _, dup := f.nindex[norm]; !dup && norm != "" {
			f.nindex[norm] = name
		}
	}
	return f
}

// Fill writes every resolvable value into its target field(s). It fails
// globally only when the template exposes no usable fields; individual field
// errors are logged and counted as not filled.
func (f *Filler) Fill(data *fields.Set, m mapping.Mapping) (*Result, error) {
	if len(f.names) == 0 {
		return nil, eris.New("filler: template exposes no form fields")
	}

	// The place-of-birth pass runs first so its targets are claimed before
	// any generic strategy can reach them with a worse value.
	f.fillBirthPlace(data)

	// Raw note inputs are redundant once consolidation has produced
	// notes_combined; letting them through would re-fill note fields with
	// the whole unsplit block.
	consolidated := data.Has(normalize.KeyNotesCombined)

	for _, key := range data.Keys() {
		value := data.Get(key)
		if strings.TrimSpace(value) == "" {
			continue
		}
		if consolidated && rawNoteKey(key) {
			continue
		}
		f.fillKey(key, value, m)
	}

	f.log.Debug("fill complete",
		zap.Int("filled", f.result.FilledCount),
		zap.Int("template_fields", len(f.names)),
	)
	res := f.result
	return &res, nil
}

// fillKey runs the strategy cascade for a single canonical key.
func (f *Filler) fillKey(key, value string, m mapping.Mapping) {
	before := f.result.FilledCount

	// 1. Identity: the key itself may be a literal field name.
	f.writeLower(key, value)

	// 2. Resolved mapping, fanned out to every target.
	if targets, ok := m[key]; ok {
		if isNotesKey(key) && len(targets) > 1 {
			f.distributeLines(value, targets)
		} else {
			for _, target := range targets {
				f.writeLower(target, value)
			}
		}
	}

	// 3. Static defaults, only when nothing has landed yet.
	if f.result.FilledCount == before {
		f.fillDefaults(key, value)
	}

	// 4. Date decomposition is attempted regardless of prior success: a date
	// may populate a combined field and split day/month/year fields at once.
	if isDateKey(key) {
		f.fillDateParts(value)
	}

	// 5. Fuzzy normalized-name match as the last resort.
	if f.result.FilledCount == before {
		f.fillFuzzy(key, value)
	}
}

// distributeLines assigns one line of a multi-line value to each target in
// order, instead of duplicating the whole value into every target. A target
// that refuses the write (already claimed, or outside the vocabulary) is
// skipped without consuming the line, so no line is ever lost to a dead slot.
func (f *Filler) distributeLines(value string, targets []string) {
	lines := splitLines(value)
	next := 0
	for _, target := range targets {
		if next >= len(lines) {
			return
		}
		if f.writeLower(target, lines[next]) {
			next++
		}
	}
}

// writeLower resolves name case-insensitively against the template
// vocabulary and writes the value. Names outside the vocabulary are ignored:
// the filler never writes to a field the template does not declare.
func (f *Filler) writeLower(name, value string) bool {
	actual, ok := f.index[strings.ToLower(name)]
	if !ok {
		return false
	}
	return f.write(actual, value)
}

func (f *Filler) write(actual, value string) bool {
	if f.written[actual] || strings.TrimSpace(value) == "" {
		return false
	}
	if err := f.form.SetText(actual, Sanitize(value)); err != nil {
		f.log.Debug("field write failed", zap.String("field", actual), zap.Error(err))
		return false
	}
	f.written[actual] = true
	f.result.FilledCount++
	f.result.FilledFields = append(f.result.FilledFields, actual)
	return true
}

func splitLines(value string) []string {
	raw := strings.Split(value, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isNotesKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "note") || strings.Contains(lower, "nota")
}

// rawNoteKey reports whether key is one of the consolidation inputs whose
// content already lives in notes_combined.
func rawNoteKey(key string) bool {
	lower := strings.ToLower(key)
	for _, k := range normalize.RawNoteKeys {
		if lower == k {
			return true
		}
	}
	return false
}
