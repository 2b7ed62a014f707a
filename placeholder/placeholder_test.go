package placeholder

import (
	"strings"
	"testing"
)

func TestExtract_NoPlaceholdersIsNoOp(t *testing.T) {
	text := "Just a plain sentence."
	marked, markers := Extract(text)
	if marked != text {
		t.Errorf("text changed: %q", marked)
	}
	if markers != nil {
		t.Errorf("expected nil markers, got %v", markers)
	}
	if got := Restore(marked, markers); got != text {
		t.Errorf("Restore changed text without markers: %q", got)
	}
}

func TestExtract_ReplacesTokensWithPaddedSentinels(t *testing.T) {
	marked, markers := Extract("Hello {{name}}, you have {count} items")

	if strings.Contains(marked, "{{name}}") || strings.Contains(marked, "{count}") {
		t.Fatalf("placeholders leaked into marked text: %q", marked)
	}
	if len(markers) != 2 {
		t.Fatalf("expected 2 markers, got %d: %v", len(markers), markers)
	}

	found := map[string]bool{}
	for sentinel, original := range markers {
		if !strings.Contains(marked, " "+sentinel+" ") {
			t.Errorf("sentinel %q not space-padded in %q", sentinel, marked)
		}
		found[original] = true
	}
	if !found["{{name}}"] || !found["{count}"] {
		t.Errorf("marker map lost originals: %v", markers)
	}
}

func TestRestore_RoundTripReproducesSource(t *testing.T) {
	cases := []string{
		"Hello {{name}}!",
		"{{greeting}} to you",
		"tail token {{x}}",
		"({{a}}) and {b}.",
		"{{a}}{{b}} back to back",
		"You have {count} new {{type}} messages",
	}

	for _, src := range cases {
		marked, markers := Extract(src)
		if got := Restore(marked, markers); got != src {
			t.Errorf("round trip changed %q -> %q", src, got)
		}
	}
}

func TestRestore_ToleratesCaseMutations(t *testing.T) {
	marked, markers := Extract("Hi {{name}}!")

	var sentinel string
	for s := range markers {
		sentinel = s
	}

	lower := strings.ReplaceAll(marked, sentinel, strings.ToLower(sentinel))
	if got := Restore(lower, markers); !strings.Contains(got, "{{name}}") {
		t.Errorf("lowercased sentinel not restored: %q", got)
	}

	upper := strings.ReplaceAll(marked, sentinel, strings.ToUpper(sentinel))
	if got := Restore(upper, markers); !strings.Contains(got, "{{name}}") {
		t.Errorf("uppercased sentinel not restored: %q", got)
	}
}

func TestRestore_ToleratesStrippedBoundaryCharacter(t *testing.T) {
	marked, markers := Extract("Hi {{name}}!")

	var sentinel string
	for s := range markers {
		sentinel = s
	}

	noFirst := strings.ReplaceAll(marked, sentinel, sentinel[1:])
	if got := Restore(noFirst, markers); !strings.Contains(got, "{{name}}") {
		t.Errorf("front-stripped sentinel not restored: %q", got)
	}

	noLast := strings.ReplaceAll(marked, sentinel, sentinel[:len(sentinel)-1])
	if got := Restore(noLast, markers); !strings.Contains(got, "{{name}}") {
		t.Errorf("back-stripped sentinel not restored: %q", got)
	}
}

func TestRestore_CollapsesLeftoverSpaceRuns(t *testing.T) {
	marked, markers := Extract("A {{b}} C")

	// Simulate an engine inserting extra spaces around the sentinel.
	spaced := strings.ReplaceAll(marked, " ", "   ")
	got := Restore(spaced, markers)

	if strings.Contains(got, "  ") {
		t.Errorf("space runs survived restore: %q", got)
	}
	if !strings.Contains(got, "{{b}}") {
		t.Errorf("placeholder lost: %q", got)
	}
}

func TestRestore_MultipleTokensDistinct(t *testing.T) {
	src := "{{first}} then {{second}} then {{third}}"
	marked, markers := Extract(src)
	got := Restore(marked, markers)
	if got != src {
		t.Fatalf("multi-token round trip changed %q -> %q", src, got)
	}

	idx1 := strings.Index(got, "{{first}}")
	idx2 := strings.Index(got, "{{second}}")
	idx3 := strings.Index(got, "{{third}}")
	if !(idx1 < idx2 && idx2 < idx3) {
		t.Errorf("token order scrambled: %q", got)
	}
}
