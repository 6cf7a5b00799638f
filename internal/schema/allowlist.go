// Package schema implements the Schema Catalog (C1): the allow-list
// bootstrap every validator and generator call observes as a single
// point-in-time snapshot (§3, §5).
package schema

import (
	"crypto/sha256"
	"regexp"
	"sort"
	"strings"
)

// identifierPattern is the syntax every label, relationship type, and
// property name must satisfy (§3).
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s is a syntactically legal schema
// identifier.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// AllowList is the immutable, atomically-swapped artifact C1 publishes.
// Every field is read-only after construction; callers must go through
// NewAllowList to build one.
type AllowList struct {
	Labels        map[string]struct{}
	Relationships map[string]struct{}
	Properties    map[string]map[string]struct{} // label -> property set
	Fingerprint   [32]byte
}

// NewAllowList builds an AllowList from raw introspection results and
// computes its fingerprint over the sorted, canonicalised triples.
func NewAllowList(labels, relationships []string, properties map[string][]string) *AllowList {
	al := &AllowList{
		Labels:        toSet(labels),
		Relationships: toSet(relationships),
		Properties:    map[string]map[string]struct{}{},
	}
	for label, props := range properties {
		al.Properties[label] = toSet(props)
	}
	al.Fingerprint = computeFingerprint(labels, relationships, properties)
	return al
}

func toSet(items []string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// computeFingerprint produces a stable hash over the sorted allow-list
// content so that two introspections of an unchanged schema always agree
// (§4.1 idempotence).
func computeFingerprint(labels, relationships []string, properties map[string][]string) [32]byte {
	var b strings.Builder

	sortedLabels := append([]string(nil), labels...)
	sort.Strings(sortedLabels)
	for _, l := range sortedLabels {
		b.WriteString("L:")
		b.WriteString(l)
		b.WriteByte('\n')
	}

	sortedRels := append([]string(nil), relationships...)
	sort.Strings(sortedRels)
	for _, r := range sortedRels {
		b.WriteString("R:")
		b.WriteString(r)
		b.WriteByte('\n')
	}

	labelKeys := make([]string, 0, len(properties))
	for label := range properties {
		labelKeys = append(labelKeys, label)
	}
	sort.Strings(labelKeys)
	for _, label := range labelKeys {
		props := append([]string(nil), properties[label]...)
		sort.Strings(props)
		for _, p := range props {
			b.WriteString("P:")
			b.WriteString(label)
			b.WriteByte('.')
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}

	return sha256.Sum256([]byte(b.String()))
}

// HasLabel reports whether label is in the allow-list.
func (a *AllowList) HasLabel(label string) bool {
	_, ok := a.Labels[label]
	return ok
}

// HasRelationship reports whether rel is in the allow-list.
func (a *AllowList) HasRelationship(rel string) bool {
	_, ok := a.Relationships[rel]
	return ok
}

// SortedLabels returns the allow-list's labels in sorted order, used for
// compact hints passed to the generator (§4.6).
func (a *AllowList) SortedLabels() []string {
	return sortedKeys(a.Labels)
}

// SortedRelationships returns the allow-list's relationship types sorted.
func (a *AllowList) SortedRelationships() []string {
	return sortedKeys(a.Relationships)
}

// SortedPropertiesFor returns label's property names sorted.
func (a *AllowList) SortedPropertiesFor(label string) []string {
	return sortedKeys(a.Properties[label])
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
