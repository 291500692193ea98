package artifact

import (
	"sort"
	"strings"
)

// Key is the comparison identity of an artifact: normalized type and value.
type Key struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// String renders the key as "type:value".
func (k Key) String() string {
	return k.Type + ":" + k.Value
}

// Normalize canonicalizes an artifact type and value for comparison.
// The type is trimmed and lower-cased; the value is only trimmed because
// hashes, paths and account names keep their original casing.
// If either part is empty the result is ("", ""), which callers must exclude.
func Normalize(typ, value string) (string, string) {
	t := strings.ToLower(strings.TrimSpace(typ))
	v := strings.TrimSpace(value)
	if t == "" || v == "" {
		return "", ""
	}
	return t, v
}

// KeyOf returns the comparison key for a. ok is false when the artifact
// normalizes to an empty type or value.
func KeyOf(a Artifact) (Key, bool) {
	return NewKey(a.Type, a.Value)
}

// NewKey normalizes typ and value into a Key.
func NewKey(typ, value string) (Key, bool) {
	t, v := Normalize(typ, value)
	if t == "" {
		return Key{}, false
	}
	return Key{Type: t, Value: v}, true
}

// Set is a deduplicated set of artifact keys.
type Set map[Key]struct{}

// NewSet builds a Set from artifacts, dropping those without a usable key.
func NewSet(artifacts []Artifact) Set {
	s := make(Set, len(artifacts))
	for _, a := range artifacts {
		if k, ok := KeyOf(a); ok {
			s[k] = struct{}{}
		}
	}
	return s
}

// Add inserts k into the set.
func (s Set) Add(k Key) {
	s[k] = struct{}{}
}

// Has reports whether k is in the set.
func (s Set) Has(k Key) bool {
	_, ok := s[k]
	return ok
}

// Keys returns the set members sorted by type, then value.
func (s Set) Keys() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// PhaseMap assigns an attack phase label to each artifact key.
type PhaseMap map[Key]string

// NewPhaseMap flattens phase groups into a PhaseMap. A key that appears under
// several groups keeps the phase of the last one. Groups without a phase and
// artifacts without a usable key are skipped.
func NewPhaseMap(groups []PhaseGroup) PhaseMap {
	m := make(PhaseMap)
	for _, g := range groups {
		if g.Phase == "" {
			continue
		}
		for _, a := range g.Artifacts {
			if k, ok := KeyOf(a); ok {
				m[k] = g.Phase
			}
		}
	}
	return m
}

// SortKeys orders keys by type, then value.
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Type != keys[j].Type {
			return keys[i].Type < keys[j].Type
		}
		return keys[i].Value < keys[j].Value
	})
}
