// Package placeholder protects template interpolation tokens from machine
// translation.
//
// Translation engines routinely translate, re-case or re-punctuate anything
// that looks like a word, including {{name}}-style tokens. Extract swaps
// each token for an opaque sentinel before text is sent out; Restore puts
// the originals back afterwards, tolerating the mutations engines apply to
// unknown words (case changes, a chewed-off boundary character).
package placeholder

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// pattern matches single- and double-brace interpolation tokens, e.g.
// {count} and {{name}}. The double-brace alternative comes first so a
// {{token}} is never split into brace + inner token.
var pattern = regexp.MustCompile(`\{\{[^{}]+\}\}|\{[^{}]+\}`)

// collapseSpaces matches the space runs left behind by padded sentinels.
var collapseSpaces = regexp.MustCompile(` {2,}`)

// Extract replaces every placeholder in text with a unique sentinel,
// padded with one space on each side so engines treat it as a standalone
// word. The returned map records sentinel -> original placeholder. When the
// text contains no placeholders, Extract returns it unchanged with a nil
// map.
func Extract(text string) (string, map[string]string) {
	if !pattern.MatchString(text) {
		return text, nil
	}

	markers := make(map[string]string)
	n := 0
	marked := pattern.ReplaceAllStringFunc(text, func(ph string) string {
		sentinel := fmt.Sprintf("Xq%dqX", n)
		n++
		markers[sentinel] = ph
		return " " + sentinel + " "
	})

	return marked, markers
}

// Restore substitutes the original placeholders back into translated text
// and collapses the space runs left by the padding. Each sentinel is
// searched in several variants: the engine may have lowercased or
// uppercased it, or stripped one boundary character. A nil or empty marker
// map makes Restore a no-op.
func Restore(text string, markers map[string]string) string {
	if len(markers) == 0 {
		return text
	}

	sentinels := make([]string, 0, len(markers))
	for s := range markers {
		sentinels = append(sentinels, s)
	}
	sort.Strings(sentinels)

	for _, sentinel := range sentinels {
		original := markers[sentinel]
		for _, variant := range variants(sentinel) {
			// Eat one padding space per side when it survived, so an
			// unmutated round trip reproduces the source spacing.
			text = strings.ReplaceAll(text, " "+variant+" ", original)
			text = strings.ReplaceAll(text, " "+variant, original)
			text = strings.ReplaceAll(text, variant+" ", original)
			text = strings.ReplaceAll(text, variant, original)
		}
	}

	return collapseSpaces.ReplaceAllString(text, " ")
}

// variants lists the forms a sentinel may take after a trip through a
// translation engine. Full forms come before stripped forms so a stripped
// variant never matches inside an intact sentinel.
func variants(sentinel string) []string {
	bases := []string{sentinel, strings.ToLower(sentinel), strings.ToUpper(sentinel)}

	out := make([]string, 0, len(bases)*3)
	seen := make(map[string]bool)
	for _, base := range bases {
		for _, v := range []string{base, base[1:], base[:len(base)-1]} {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
