// Package override loads manually curated translations that supersede
// anything a provider returns.
//
// The override file is a static JSON document keyed by namespace, then
// language, then flattened dot-path key:
//
//	{
//	    "common": {
//	        "de": {
//	            "header.title": "Startseite",
//	            "footer.legal": "Impressum"
//	        }
//	    }
//	}
//
// The file is read-only input: this tool never writes it. When an override
// matches a key, its text replaces the translated string and the entry's
// source hash is recomputed from the current source text, so later runs do
// not mistake the override for a stale translation.
package override

import (
	"encoding/json"
	"fmt"
	"os"
)

// Table holds all overrides from one file, namespace → language → key → text.
type Table struct {
	entries map[string]map[string]map[string]string
}

// Empty returns a table with no overrides.
func Empty() *Table {
	return &Table{}
}

// Load reads an override file from disk. A missing or malformed file is an
// error: the path only reaches here when the user asked for overrides, and
// silently translating without them would be worse than stopping.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading override file: %w", err)
	}

	var entries map[string]map[string]map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing override file %s: %w", path, err)
	}

	return &Table{entries: entries}, nil
}

// Lookup returns the forced translation for (namespace, language, key),
// if one exists.
func (t *Table) Lookup(namespace, lang, key string) (string, bool) {
	text, ok := t.entries[namespace][lang][key]
	return text, ok
}

// ForLanguage returns all overrides for one (namespace, language) pair.
// Returns nil when there are none.
func (t *Table) ForLanguage(namespace, lang string) map[string]string {
	return t.entries[namespace][lang]
}

// Len returns the total number of forced translations across all
// namespaces and languages.
func (t *Table) Len() int {
	n := 0
	for _, langs := range t.entries {
		for _, keys := range langs {
			n += len(keys)
		}
	}
	return n
}
