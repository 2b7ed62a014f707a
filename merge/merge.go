// Package merge assembles the output tree for one target language from the
// translated strings, the previous run's cache, and manual overrides.
//
// The source file is the single authority for which keys exist and in what
// order. Every decision is made per key, walking the flattened source:
//
//  1. A manual override always wins; its entry gets a hash of the current
//     source text so later runs don't flag it as stale.
//  2. A freshly translated string becomes a new entry.
//  3. A cached entry whose hash still matches the source is kept verbatim.
//  4. A stale cached entry is carried forward unchanged when no fresh
//     translation arrived (the old hash makes the next run retry it).
//  5. A key with no translation from any of the above is left out and
//     reported, so the caller can flag the run.
//
// Non-string leaves (numbers, booleans, arrays) pass through unchanged.
package merge

import (
	"github.com/locpipe/locpipe/cache"
	"github.com/locpipe/locpipe/i18next"
)

// Input bundles everything needed to build one language's output.
type Input struct {
	// Source is the flattened source-language tree; it dictates the key
	// set and key order of the output.
	Source *i18next.FlatMap

	// Snapshot is the previous run's output for this language. Use
	// cache.Empty() when there is none.
	Snapshot *cache.Snapshot

	// Fresh maps keys to newly translated text from this run.
	Fresh map[string]string

	// Overrides maps keys to forced translations for this language.
	Overrides map[string]string
}

// Result is the assembled flat output plus counters for reporting.
type Result struct {
	Flat *i18next.FlatMap

	Updated  int // entries written from fresh translations
	Forced   int // entries replaced by overrides
	Reused   int // cache hits kept verbatim
	Retained int // stale cache entries carried forward after a failed translation

	// Missing lists keys that ended up with no translation at all.
	Missing []string
}

// Build walks the source keys in order and picks each key's output value.
func Build(in Input) Result {
	out := Result{Flat: i18next.NewFlatMap()}

	for _, key := range in.Source.Keys() {
		node, _ := in.Source.Get(key)

		if node.Kind != i18next.KindText {
			// Passthrough leaves keep their source value in every language.
			out.Flat.Set(key, node)
			continue
		}

		sourceHash := cache.Hash(node.Text)

		if forced, ok := in.Overrides[key]; ok {
			out.Flat.Set(key, i18next.NewEntry(forced, sourceHash))
			out.Forced++
			continue
		}

		if text, ok := in.Fresh[key]; ok {
			out.Flat.Set(key, i18next.NewEntry(text, sourceHash))
			out.Updated++
			continue
		}

		if entry, ok := in.Snapshot.Lookup(key); ok {
			out.Flat.Set(key, i18next.NewEntry(entry.Translation, entry.SourceHash))
			if entry.SourceHash == sourceHash {
				out.Reused++
			} else {
				out.Retained++
			}
			continue
		}

		out.Missing = append(out.Missing, key)
	}

	return out
}
