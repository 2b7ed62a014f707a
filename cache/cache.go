// Package cache decides which source strings actually need a trip to a
// translation API.
//
// A snapshot is the flat projection of a previous run's output file for one
// (namespace, language) pair. Each source string is hashed and compared
// against the snapshot entry's sourceHash: an equal digest reuses the cached
// translation verbatim, everything else is queued for translation. This
// turns a full re-translation per run into work proportional to the changed
// keys, which matters because the APIs are rate-limited and billed per
// character.
package cache

import (
	"crypto/md5"
	"fmt"
	"os"

	"github.com/locpipe/locpipe/i18next"
)

// Hash computes the MD5 hex digest of a source string.
func Hash(s string) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(s)))
}

// Snapshot holds the cached translation entries of a previous run for one
// (namespace, language) pair.
type Snapshot struct {
	entries map[string]i18next.Entry
}

// Empty returns a snapshot with no entries, used on first runs and when
// caching is disabled.
func Empty() *Snapshot {
	return &Snapshot{entries: make(map[string]i18next.Entry)}
}

// Load reads a snapshot from a previous output file. A missing file yields
// an empty snapshot; an unreadable or unparsable one is an error.
func Load(path string) (*Snapshot, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Empty(), nil
	}

	root, err := i18next.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading cache: %w", err)
	}
	return FromTree(root)
}

// FromTree builds a snapshot from a parsed output tree, collecting entry
// leaves and ignoring everything else.
func FromTree(root *i18next.Node) (*Snapshot, error) {
	fm, err := i18next.Flatten(root)
	if err != nil {
		return nil, err
	}

	s := Empty()
	for _, key := range fm.Keys() {
		n, _ := fm.Get(key)
		if n.Kind == i18next.KindEntry {
			s.entries[key] = n.Entry
		}
	}
	return s, nil
}

// Lookup returns the cached entry for key.
func (s *Snapshot) Lookup(key string) (i18next.Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Len returns the number of cached entries.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// IsChanged reports whether a source string must be (re)translated: the key
// is new, or its content digest no longer matches the cached one.
func (s *Snapshot) IsChanged(key, sourceText string) bool {
	e, ok := s.entries[key]
	if !ok {
		return true
	}
	return e.SourceHash != Hash(sourceText)
}

// FilterChanged returns the text keys of the source flat map that need
// translation, in source order: new keys and keys whose source digest
// changed. Non-text leaves are never candidates.
func (s *Snapshot) FilterChanged(source *i18next.FlatMap) []string {
	var changed []string
	for _, key := range source.Keys() {
		n, _ := source.Get(key)
		if n.Kind != i18next.KindText {
			continue
		}
		if s.IsChanged(key, n.Text) {
			changed = append(changed, key)
		}
	}
	return changed
}

// Stats counts the source text keys by cache state: fresh (digest match),
// stale (cached but digest differs) and missing (no cached entry).
func (s *Snapshot) Stats(source *i18next.FlatMap) (fresh, stale, missing int) {
	for _, key := range source.Keys() {
		n, _ := source.Get(key)
		if n.Kind != i18next.KindText {
			continue
		}
		e, ok := s.entries[key]
		switch {
		case !ok:
			missing++
		case e.SourceHash == Hash(n.Text):
			fresh++
		default:
			stale++
		}
	}
	return
}
