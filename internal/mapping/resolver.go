// Package mapping derives, per template, the relation from canonical
// extracted-field keys to the literal form field names a PDF exposes.
//
// Resolution is deterministic: the same field-name set always produces the
// same mapping with targets in the same order, because downstream multi-line
// filling relies on target order to preserve reading order.
package mapping

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Mapping relates one canonical key to its ordered, deduplicated PDF targets.
type Mapping map[string][]string

var trailingDigits = regexp.MustCompile(`(\d+)$`)

// Resolve builds a Mapping for the given template field names. A canonical
// key with zero matches is simply absent from the result; the filler's
// fallback strategies cover those.
func Resolve(fieldNames []string) Mapping {
	type namedField struct {
		lower string
		orig  string
	}
	nf := make([]namedField, 0, len(fieldNames))
	seen := make(map[string]struct{}, len(fieldNames))
	for _, name := range fieldNames {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		nf = append(nf, namedField{lower: strings.ToLower(name), orig: name})
	}

	keys := make([]string, 0, len(canonicalPatterns))
	for k := range canonicalPatterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := make(Mapping)
	for _, key := range keys {
		spec := canonicalPatterns[key]
		matched := make(map[string]struct{})
		for _, pat := range spec.patterns {
			pat = strings.ToLower(pat)
			for _, f := range nf {
				if f.lower != pat &&
					!strings.Contains(f.lower, pat) &&
					!strings.Contains(pat, f.lower) {
					continue
				}
				if excluded(f.lower, spec.exclude) {
					continue
				}
				matched[f.orig] = struct{}{}
			}
		}
		// Registry location must never attach to birth-location fields; the
		// reverse direction is allowed, so this is a post-filter rather than
		// a pattern exclusion.
		if key == "registry_location_combined" {
			for name := range matched {
				if strings.Contains(strings.ToLower(name), "birth") {
					delete(matched, name)
				}
			}
		}
		if len(matched) == 0 {
			continue
		}
		m[key] = sortTargets(matched)
	}
	return m
}

func excluded(lowerName string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(lowerName, tok) {
			return true
		}
	}
	return false
}

// sortTargets orders targets by any numeric suffix embedded in the field name
// (ascending), then lexically. Suffix-less names sort before numbered ones.
func sortTargets(set map[string]struct{}) []string {
	targets := make([]string, 0, len(set))
	for name := range set {
		targets = append(targets, name)
	}
	sort.Slice(targets, func(i, j int) bool {
		ni, oki := numericSuffix(targets[i])
		nj, okj := numericSuffix(targets[j])
		if oki != okj {
			return !oki
		}
		if oki && okj && ni != nj {
			return ni < nj
		}
		return targets[i] < targets[j]
	})
	return targets
}

func numericSuffix(name string) (int, bool) {
	m := trailingDigits.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// MergeOverrides layers a persisted per-template override table under the
// dynamically derived mapping. Override entries are added first; on a key
// conflict the resolver's targets win, so template quirks can extend the
// vocabulary without displacing correctness-critical derivations.
func MergeOverrides(derived Mapping, overrides map[string][]string) Mapping {
	out := make(Mapping, len(derived)+len(overrides))
	for key, targets := range overrides {
		out[key] = dedupe(targets)
	}
	for key, targets := range derived {
		out[key] = targets
	}
	return out
}

func dedupe(targets []string) []string {
	out := make([]string, 0, len(targets))
	seen := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
