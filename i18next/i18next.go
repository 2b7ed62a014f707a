// Package i18next implements reading and writing of the pipeline's JSON
// resource files.
//
// A source file is an arbitrarily nested JSON object whose string leaves are
// translatable text:
//
//	{
//	    "greeting": "Hello {{name}}",
//	    "menu": {
//	        "title": "Settings",
//	        "columns": 4
//	    }
//	}
//
// Translated files keep the same nesting but wrap every string leaf in an
// entry recording the content digest of the source text it was translated
// from:
//
//	{
//	    "greeting": {
//	        "translation": "Hallo {{name}}",
//	        "sourceHash": "5f0e64eb..."
//	    }
//	}
//
// Numbers, booleans, nulls and arrays pass through verbatim. Key order is
// preserved end to end: output files list keys in the same order as the
// source file.
package i18next

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind tags the variants a parsed node can take. The tag is decided once,
// during parsing, so later passes never sniff value shapes.
type Kind int

const (
	// KindObject is a nested JSON object. Walks recurse into it.
	KindObject Kind = iota
	// KindText is a plain string leaf, the unit of translation.
	KindText
	// KindEntry is a {"translation", "sourceHash"} pair written by a
	// previous run. Terminal: flattening never descends into it.
	KindEntry
	// KindPassthrough is an array, number, boolean or null. Terminal,
	// copied to the output verbatim.
	KindPassthrough
)

// Entry is a translated leaf together with the digest of the source text it
// was produced from.
type Entry struct {
	Translation string
	SourceHash  string
}

// Node is one element of a parsed resource tree. Object nodes remember the
// order their children appeared in.
type Node struct {
	Kind  Kind
	Text  string          // KindText
	Entry Entry           // KindEntry
	Raw   json.RawMessage // KindPassthrough: the original value bytes

	keys     []string
	children map[string]*Node
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{Kind: KindObject, children: make(map[string]*Node)}
}

// NewText returns a string leaf.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// NewEntry returns a translation-entry leaf.
func NewEntry(translation, sourceHash string) *Node {
	return &Node{Kind: KindEntry, Entry: Entry{Translation: translation, SourceHash: sourceHash}}
}

// Keys returns an object's child keys in file order.
func (n *Node) Keys() []string {
	return n.keys
}

// Child returns the named child of an object node, or nil.
func (n *Node) Child(key string) *Node {
	return n.children[key]
}

// Set adds or replaces a child. New keys are appended at the end, existing
// keys keep their position.
func (n *Node) Set(key string, child *Node) {
	if n.children == nil {
		n.children = make(map[string]*Node)
	}
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	n.children[key] = child
}

// ParseFile reads and parses a resource file.
func ParseFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return root, nil
}

// Parse parses resource JSON. The top-level value must be an object.
func Parse(data []byte) (*Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("top-level value must be a JSON object")
	}
	return parseObject(trimmed)
}

// parseObject walks one object level with its own decoder to preserve key
// order. Values are captured raw, classified, and nested objects recurse.
func parseObject(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := t.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected {, got %v", t)
	}

	obj := NewObject()

	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %T", kt)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("reading value of %q: %w", key, err)
		}

		child, err := classify(raw)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		obj.Set(key, child)
	}

	return obj, nil
}

// classify decides the node kind for a raw JSON value.
func classify(raw json.RawMessage) (*Node, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty value")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return NewText(s), nil
	case '{':
		if e, ok := entryShape(trimmed); ok {
			return &Node{Kind: KindEntry, Entry: e}, nil
		}
		return parseObject(trimmed)
	default:
		// Arrays, numbers, booleans, null.
		return &Node{Kind: KindPassthrough, Raw: append(json.RawMessage(nil), trimmed...)}, nil
	}
}

// entryShape reports whether raw is exactly {"translation": string,
// "sourceHash": string}. Files written by earlier runs are full of these
// pairs, and they must not be mistaken for translatable objects.
func entryShape(raw json.RawMessage) (Entry, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil || len(m) != 2 {
		return Entry{}, false
	}
	tr, ok := m["translation"]
	if !ok {
		return Entry{}, false
	}
	sh, ok := m["sourceHash"]
	if !ok {
		return Entry{}, false
	}
	var e Entry
	if json.Unmarshal(tr, &e.Translation) != nil || json.Unmarshal(sh, &e.SourceHash) != nil {
		return Entry{}, false
	}
	return e, true
}

// WriteFile marshals the tree and writes it to path, creating parent
// directories as needed.
func WriteFile(path string, root *Node) error {
	data, err := Marshal(root)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// indentUnit is the output indentation step.
const indentUnit = "    "

// Marshal renders the tree as JSON with 4-space indentation, child order
// preserved.
func Marshal(root *Node) ([]byte, error) {
	if root == nil || root.Kind != KindObject {
		return nil, fmt.Errorf("root must be an object node")
	}

	var b strings.Builder
	if err := writeNode(&b, root, ""); err != nil {
		return nil, err
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

func writeNode(b *strings.Builder, n *Node, indent string) error {
	switch n.Kind {
	case KindText:
		b.WriteString(jsonString(n.Text))

	case KindEntry:
		inner := indent + indentUnit
		b.WriteString("{\n")
		b.WriteString(inner + "\"translation\": " + jsonString(n.Entry.Translation) + ",\n")
		b.WriteString(inner + "\"sourceHash\": " + jsonString(n.Entry.SourceHash) + "\n")
		b.WriteString(indent + "}")

	case KindPassthrough:
		var buf bytes.Buffer
		if err := json.Indent(&buf, n.Raw, indent, indentUnit); err != nil {
			return err
		}
		b.Write(buf.Bytes())

	case KindObject:
		if len(n.keys) == 0 {
			b.WriteString("{}")
			return nil
		}
		inner := indent + indentUnit
		b.WriteString("{\n")
		for i, key := range n.keys {
			b.WriteString(inner + jsonString(key) + ": ")
			if err := writeNode(b, n.children[key], inner); err != nil {
				return err
			}
			if i < len(n.keys)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent + "}")

	default:
		return fmt.Errorf("unknown node kind %d", n.Kind)
	}
	return nil
}

// jsonString returns a JSON-encoded string value (with proper escaping).
func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
