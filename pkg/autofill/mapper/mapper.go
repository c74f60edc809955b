// Package mapper matches profile values to scanned form fields.
package mapper

import (
	"strings"

	"github.com/entrhq/formpilot/pkg/autofill/field"
)

// Map assigns at most one profile value to each fillable field.
//
// For every field, profile keys are tried in insertion order. A key matches
// when it is a case-insensitive substring of the field's name, id, label or
// placeholder (or the other way round), checked in that order, or when its
// synonym group appears in the combined field text. The first matching key
// wins. Submit buttons are never mapped.
func Map(fields []field.FieldDescriptor, values *field.ProfileValues) field.ValueMap {
	out := field.ValueMap{}
	if values.Len() == 0 {
		return out
	}

	for _, f := range fields {
		if !f.Kind.Fillable() {
			continue
		}
		values.Range(func(key, value string) bool {
			if value == "" {
				return true
			}
			if !Matches(f, key) {
				return true
			}
			out[f.Identifier()] = value
			return false
		})
	}
	return out
}

// Matches reports whether profile key applies to field f.
func Matches(f field.FieldDescriptor, key string) bool {
	for _, attr := range []string{f.Name, f.ID, f.Label, f.Placeholder} {
		if mutualContains(attr, key) {
			return true
		}
	}
	return matchesSynonyms(f, key)
}

// mutualContains is a case-insensitive substring test in either direction.
// Empty strings never match.
func mutualContains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func matchesSynonyms(f field.FieldDescriptor, key string) bool {
	group, ok := GroupOf(key)
	if !ok {
		return false
	}
	haystack := strings.ToLower(strings.Join([]string{f.Name, f.ID, f.Label, f.Placeholder}, " "))
	for _, syn := range group {
		if strings.Contains(haystack, syn) {
			return true
		}
	}
	return false
}
