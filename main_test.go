package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/locpipe/locpipe/config"
)

func TestProgressBar(t *testing.T) {
	cases := []struct {
		name    string
		percent int
		width   int
		want    string
	}{
		{
			name:    "clamps below zero",
			percent: -10,
			width:   4,
			want:    colorRed + "░░░░" + colorReset + "   0%",
		},
		{
			name:    "mid range uses yellow",
			percent: 50,
			width:   4,
			want:    colorYellow + "██░░" + colorReset + "  50%",
		},
		{
			name:    "clamps above hundred",
			percent: 120,
			width:   4,
			want:    colorGreen + "████" + colorReset + " 100%",
		},
	}

	for _, tc := range cases {
		if got := progressBar(tc.percent, tc.width); got != tc.want {
			t.Fatalf("%s: progressBar() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSplitLangs(t *testing.T) {
	got := splitLangs(" de, fr ,,pt-BR ")
	want := []string{"de", "fr", "pt-BR"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitLangs() = %v, want %v", got, want)
	}

	if got := splitLangs(""); got != nil {
		t.Fatalf("splitLangs(\"\") = %v, want nil", got)
	}
}

func TestJoinRoot(t *testing.T) {
	oldRoot := rootDir
	rootDir = "web"
	defer func() { rootDir = oldRoot }()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "relative joins root", in: "locales/common.en.json", want: filepath.Join("web", "locales/common.en.json")},
		{name: "absolute stays", in: "/abs/path.json", want: "/abs/path.json"},
		{name: "empty stays", in: "", want: ""},
	}

	for _, tc := range cases {
		if got := joinRoot(tc.in); got != tc.want {
			t.Fatalf("%s: joinRoot(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestDetectLanguages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"common.de.json", "common.fr.json", "common.en.json",
		"common.json", "menu.v2.json", "notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// A directory with a language-looking name must not count.
	if err := os.Mkdir(filepath.Join(dir, "es.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{
		SourceFile: filepath.Join(dir, "common.en.json"),
		OutDir:     dir,
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatal(err)
	}

	got := detectLanguages(cfg)
	want := []string{"de", "fr"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("detectLanguages() = %v, want %v", got, want)
	}
}

func TestDetectLanguagesBareLayout(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"en.json", "de.json", "pt-BR.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{
		SourceFile: filepath.Join(dir, "en.json"),
		OutDir:     dir,
	}
	if err := cfg.Normalize(); err != nil {
		t.Fatal(err)
	}

	got := detectLanguages(cfg)
	want := []string{"de", "pt-BR"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("detectLanguages() = %v, want %v", got, want)
	}
}
