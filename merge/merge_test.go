package merge

import (
	"strings"
	"testing"

	"github.com/locpipe/locpipe/cache"
	"github.com/locpipe/locpipe/i18next"
)

func parseFlat(t *testing.T, src string) *i18next.FlatMap {
	t.Helper()
	root, err := i18next.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	flat, err := i18next.Flatten(root)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	return flat
}

func snapshotOf(t *testing.T, src string) *cache.Snapshot {
	t.Helper()
	root, err := i18next.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse snapshot: %v", err)
	}
	snap, err := cache.FromTree(root)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return snap
}

func entryAt(t *testing.T, flat *i18next.FlatMap, key string) i18next.Entry {
	t.Helper()
	n, ok := flat.Get(key)
	if !ok {
		t.Fatalf("key %q missing from output", key)
	}
	if n.Kind != i18next.KindEntry {
		t.Fatalf("key %q has kind %v, want entry", key, n.Kind)
	}
	return n.Entry
}

func TestBuildDecisionOrder(t *testing.T) {
	source := parseFlat(t, `{
		"forced": "Source forced",
		"fresh": "Source fresh",
		"cached": "Source cached",
		"stale": "Source stale v2",
		"orphan": "Source orphan",
		"count": 42
	}`)

	snapshot := snapshotOf(t, `{
		"cached": {"translation": "Cache hit", "sourceHash": "`+cache.Hash("Source cached")+`"},
		"stale": {"translation": "Old translation", "sourceHash": "`+cache.Hash("Source stale v1")+`"}
	}`)

	result := Build(Input{
		Source:    source,
		Snapshot:  snapshot,
		Fresh:     map[string]string{"fresh": "Neu", "forced": "API result"},
		Overrides: map[string]string{"forced": "Handpicked"},
	})

	if got := entryAt(t, result.Flat, "forced"); got.Translation != "Handpicked" {
		t.Errorf("override lost to API result: %q", got.Translation)
	}
	if got := entryAt(t, result.Flat, "fresh"); got.Translation != "Neu" {
		t.Errorf("fresh translation = %q", got.Translation)
	}
	if got := entryAt(t, result.Flat, "cached"); got.Translation != "Cache hit" {
		t.Errorf("cache hit = %q", got.Translation)
	}
	if got := entryAt(t, result.Flat, "stale"); got.Translation != "Old translation" {
		t.Errorf("stale entry not carried forward: %q", got.Translation)
	}

	if n, ok := result.Flat.Get("count"); !ok || n.Kind != i18next.KindPassthrough {
		t.Error("number leaf should pass through")
	}
	if _, ok := result.Flat.Get("orphan"); ok {
		t.Error("untranslatable key should be left out")
	}

	if result.Forced != 1 || result.Updated != 1 || result.Reused != 1 || result.Retained != 1 {
		t.Errorf("counters = forced %d, updated %d, reused %d, retained %d",
			result.Forced, result.Updated, result.Reused, result.Retained)
	}
	if len(result.Missing) != 1 || result.Missing[0] != "orphan" {
		t.Errorf("Missing = %v", result.Missing)
	}
}

func TestBuildKeepsSourceOrder(t *testing.T) {
	source := parseFlat(t, `{"z": "Z", "nested": {"a": "A"}, "b": "B"}`)

	result := Build(Input{
		Source:   source,
		Snapshot: cache.Empty(),
		Fresh:    map[string]string{"b": "B2", "z": "Z2", "nested.a": "A2"},
	})

	want := []string{"z", "nested.a", "b"}
	got := result.Flat.Keys()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("key order = %v, want %v", got, want)
	}
}

func TestBuildCacheHitKeptVerbatim(t *testing.T) {
	source := parseFlat(t, `{"greeting": "Hello"}`)
	hash := cache.Hash("Hello")
	snapshot := snapshotOf(t, `{"greeting": {"translation": "Hallo", "sourceHash": "`+hash+`"}}`)

	result := Build(Input{Source: source, Snapshot: snapshot, Fresh: map[string]string{}})

	got := entryAt(t, result.Flat, "greeting")
	if got.Translation != "Hallo" || got.SourceHash != hash {
		t.Errorf("cache hit mutated: %+v", got)
	}
	if result.Reused != 1 {
		t.Errorf("Reused = %d, want 1", result.Reused)
	}
}

func TestBuildChangedSourceGetsCurrentHash(t *testing.T) {
	source := parseFlat(t, `{"greeting": "Hello there"}`)
	snapshot := snapshotOf(t, `{"greeting": {"translation": "Hallo", "sourceHash": "`+cache.Hash("Hello")+`"}}`)

	result := Build(Input{
		Source:   source,
		Snapshot: snapshot,
		Fresh:    map[string]string{"greeting": "Hallo du"},
	})

	got := entryAt(t, result.Flat, "greeting")
	if got.Translation != "Hallo du" {
		t.Errorf("translation = %q", got.Translation)
	}
	if got.SourceHash != cache.Hash("Hello there") {
		t.Errorf("sourceHash = %q, want digest of new source text", got.SourceHash)
	}
}

func TestBuildOverrideRecomputesHashFromCurrentSource(t *testing.T) {
	source := parseFlat(t, `{"a": "Current source"}`)
	snapshot := snapshotOf(t, `{"a": {"translation": "Stale", "sourceHash": "`+cache.Hash("Ancient source")+`"}}`)

	result := Build(Input{
		Source:    source,
		Snapshot:  snapshot,
		Overrides: map[string]string{"a": "Forced"},
	})

	got := entryAt(t, result.Flat, "a")
	if got.Translation != "Forced" {
		t.Errorf("translation = %q, want Forced", got.Translation)
	}
	if got.SourceHash != cache.Hash("Current source") {
		t.Errorf("sourceHash = %q, want digest of current source", got.SourceHash)
	}

	// The recomputed hash means the next run sees the override as fresh.
	next := snapshotOf(t, `{"a": {"translation": "Forced", "sourceHash": "`+got.SourceHash+`"}}`)
	if next.IsChanged("a", "Current source") {
		t.Error("override should not look stale on the next run")
	}
}

func TestBuildStaleRetainedKeepsOldHash(t *testing.T) {
	source := parseFlat(t, `{"a": "New text"}`)
	oldHash := cache.Hash("Old text")
	snapshot := snapshotOf(t, `{"a": {"translation": "Alt", "sourceHash": "`+oldHash+`"}}`)

	// No fresh translation arrived, e.g. both providers failed.
	result := Build(Input{Source: source, Snapshot: snapshot})

	got := entryAt(t, result.Flat, "a")
	if got.Translation != "Alt" || got.SourceHash != oldHash {
		t.Errorf("retained entry = %+v, want old translation with old hash", got)
	}
	if result.Retained != 1 {
		t.Errorf("Retained = %d, want 1", result.Retained)
	}

	// The stale hash must survive so a later run retries the key.
	if !snapshot.IsChanged("a", "New text") {
		t.Error("retained entry should still read as changed next run")
	}
}
