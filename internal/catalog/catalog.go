// Package catalog holds the vocabulary of the prompt compiler: static tables
// mapping style, view, diagram, verb, material, form and atmosphere
// identifiers to instruction fragments. Every lookup is total; an unknown key
// resolves to the table's documented fallback and reports a Miss.
package catalog

import (
	"fmt"
	"strings"
)

type Entry struct {
	Key      string
	Name     string
	Fragment string
}

// Miss records a lookup that degraded to a fallback entry.
type Miss struct {
	Catalog string
	Key     string
}

func (m Miss) String() string {
	return fmt.Sprintf("%s:%q", m.Catalog, m.Key)
}

type NamedOption struct {
	Key  string
	Name string
}

type table struct {
	name     string
	order    []string
	entries  map[string]Entry
	fallback Entry
}

func newTable(name string, fallback Entry, entries ...Entry) table {
	t := table{
		name:     name,
		order:    make([]string, 0, len(entries)),
		entries:  make(map[string]Entry, len(entries)),
		fallback: fallback,
	}
	for _, e := range entries {
		if e.Name == "" {
			e.Name = e.Key
		}
		k := NormalizeKey(e.Key)
		t.order = append(t.order, k)
		t.entries[k] = e
	}
	return t
}

func (t table) lookup(key string) (Entry, *Miss) {
	if e, ok := t.entries[NormalizeKey(key)]; ok {
		return e, nil
	}
	return t.fallback, &Miss{Catalog: t.name, Key: key}
}

func (t table) has(key string) bool {
	_, ok := t.entries[NormalizeKey(key)]
	return ok
}

func (t table) options() []NamedOption {
	out := make([]NamedOption, 0, len(t.order))
	for _, k := range t.order {
		e := t.entries[k]
		out = append(out, NamedOption{Key: e.Key, Name: e.Name})
	}
	return out
}

// NormalizeKey folds case and treats spaces, underscores and hyphens alike,
// so "Wood Block", "wood_block" and "wood-block" address the same entry.
func NormalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	return strings.Join(strings.Fields(key), " ")
}

func SameKey(a, b string) bool {
	return NormalizeKey(a) == NormalizeKey(b)
}
