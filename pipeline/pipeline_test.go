package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/locpipe/locpipe/cache"
	"github.com/locpipe/locpipe/config"
	"github.com/locpipe/locpipe/i18next"
	"github.com/locpipe/locpipe/override"
)

// fakeService translates by tagging each string with the target language,
// recording every batch it receives.
type fakeService struct {
	available bool
	batches   [][]string
	targets   []string
	errFor    map[string]error
}

func (f *fakeService) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	batch := make([]string, len(texts))
	copy(batch, texts)
	f.batches = append(f.batches, batch)
	f.targets = append(f.targets, targetLang)

	if err := f.errFor[targetLang]; err != nil {
		return nil, err
	}

	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "[" + targetLang + "] " + t
	}
	return out, nil
}

func (f *fakeService) Available() bool { return f.available }

func (f *fakeService) sawText(text string) bool {
	for _, batch := range f.batches {
		for _, t := range batch {
			if t == text {
				return true
			}
		}
	}
	return false
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing fixture %s: %v", name, err)
	}
	return path
}

func testConfig(t *testing.T, sourceFile, outDir string, langs ...string) *config.Config {
	t.Helper()
	cfg := &config.Config{SourceFile: sourceFile, OutDir: outDir, Languages: langs}
	if err := cfg.Normalize(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func readOutput(t *testing.T, path string) *i18next.FlatMap {
	t.Helper()
	root, err := i18next.ParseFile(path)
	if err != nil {
		t.Fatalf("parsing output %s: %v", path, err)
	}
	flat, err := i18next.Flatten(root)
	if err != nil {
		t.Fatalf("flattening output: %v", err)
	}
	return flat
}

func outputEntry(t *testing.T, flat *i18next.FlatMap, key string) i18next.Entry {
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

func TestRunFirstTranslation(t *testing.T) {
	dir := t.TempDir()
	source := writeFixture(t, dir, "common.en.json", `{
		"greeting": "Hello",
		"menu": {
			"title": "Settings",
			"columns": 4
		}
	}`)

	svc := &fakeService{available: true}
	cfg := testConfig(t, source, filepath.Join(dir, "out"), "de")

	if err := Run(context.Background(), Options{Config: cfg, Service: svc}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := readOutput(t, filepath.Join(dir, "out", "common.de.json"))

	if got := outputEntry(t, out, "greeting"); got.Translation != "[de] Hello" || got.SourceHash != cache.Hash("Hello") {
		t.Errorf("greeting = %+v", got)
	}
	if got := outputEntry(t, out, "menu.title"); got.Translation != "[de] Settings" {
		t.Errorf("menu.title = %+v", got)
	}
	if n, ok := out.Get("menu.columns"); !ok || n.Kind != i18next.KindPassthrough {
		t.Error("number leaf should pass through")
	}

	want := []string{"greeting", "menu.title", "menu.columns"}
	if strings.Join(out.Keys(), ",") != strings.Join(want, ",") {
		t.Errorf("output order = %v, want %v", out.Keys(), want)
	}

	if len(svc.targets) != 1 || svc.targets[0] != "de" {
		t.Errorf("targets = %v", svc.targets)
	}
}

func TestRunUnchangedKeysSkipProvider(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}

	source := writeFixture(t, dir, "common.en.json", `{"greeting": "Hello", "farewell": "Bye"}`)

	// A previous run already translated "greeting".
	writeFixture(t, outDir, "common.de.json", fmt.Sprintf(`{
		"greeting": {"translation": "Hallo", "sourceHash": %q}
	}`, cache.Hash("Hello")))

	svc := &fakeService{available: true}
	cfg := testConfig(t, source, outDir, "de")

	if err := Run(context.Background(), Options{Config: cfg, Service: svc}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if svc.sawText("Hello") {
		t.Error("unchanged key was sent to the provider")
	}
	if !svc.sawText("Bye") {
		t.Error("new key was not sent to the provider")
	}

	out := readOutput(t, filepath.Join(outDir, "common.de.json"))
	if got := outputEntry(t, out, "greeting"); got.Translation != "Hallo" || got.SourceHash != cache.Hash("Hello") {
		t.Errorf("cached entry not preserved exactly: %+v", got)
	}
}

func TestRunChangedKeyRetranslated(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}

	source := writeFixture(t, dir, "common.en.json", `{"greeting": "Hello there"}`)
	writeFixture(t, outDir, "common.de.json", fmt.Sprintf(`{
		"greeting": {"translation": "Hallo", "sourceHash": %q}
	}`, cache.Hash("Hello")))

	svc := &fakeService{available: true}
	cfg := testConfig(t, source, outDir, "de")

	if err := Run(context.Background(), Options{Config: cfg, Service: svc}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !svc.sawText("Hello there") {
		t.Error("changed key was not re-translated")
	}

	out := readOutput(t, filepath.Join(outDir, "common.de.json"))
	got := outputEntry(t, out, "greeting")
	if got.Translation != "[de] Hello there" {
		t.Errorf("translation = %q", got.Translation)
	}
	if got.SourceHash != cache.Hash("Hello there") {
		t.Errorf("sourceHash = %q, want digest of new source", got.SourceHash)
	}
}

func TestRunRetranslateIgnoresCache(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}

	source := writeFixture(t, dir, "common.en.json", `{"greeting": "Hello"}`)
	writeFixture(t, outDir, "common.de.json", fmt.Sprintf(`{
		"greeting": {"translation": "Hallo", "sourceHash": %q}
	}`, cache.Hash("Hello")))

	svc := &fakeService{available: true}
	cfg := testConfig(t, source, outDir, "de")
	cfg.Retranslate = true

	if err := Run(context.Background(), Options{Config: cfg, Service: svc}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !svc.sawText("Hello") {
		t.Error("retranslate should send cached keys too")
	}
	out := readOutput(t, filepath.Join(outDir, "common.de.json"))
	if got := outputEntry(t, out, "greeting"); got.Translation != "[de] Hello" {
		t.Errorf("translation = %q", got.Translation)
	}
}

func TestRunFailedBatchRetainsCache(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Source changed since the cached run, and the provider is down.
	source := writeFixture(t, dir, "common.en.json", `{"greeting": "Hello v2"}`)
	oldHash := cache.Hash("Hello")
	writeFixture(t, outDir, "common.de.json", fmt.Sprintf(`{
		"greeting": {"translation": "Hallo", "sourceHash": %q}
	}`, oldHash))

	svc := &fakeService{
		available: true,
		errFor:    map[string]error{"de": errors.New("both providers failed")},
	}
	cfg := testConfig(t, source, outDir, "de")

	err := Run(context.Background(), Options{Config: cfg, Service: svc})
	if err == nil || !strings.Contains(err.Error(), "de") {
		t.Fatalf("expected failure naming de, got %v", err)
	}

	// The file was still written, keeping the old entry with its old hash
	// so the next run retries.
	out := readOutput(t, filepath.Join(outDir, "common.de.json"))
	got := outputEntry(t, out, "greeting")
	if got.Translation != "Hallo" || got.SourceHash != oldHash {
		t.Errorf("cached entry not retained: %+v", got)
	}
}

func TestRunSourceLanguagePassThrough(t *testing.T) {
	dir := t.TempDir()
	source := writeFixture(t, dir, "common.en.json", `{"greeting": "Hello", "n": 1}`)

	svc := &fakeService{available: true}
	cfg := testConfig(t, source, filepath.Join(dir, "out"), "en")

	if err := Run(context.Background(), Options{Config: cfg, Service: svc}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(svc.batches) != 0 {
		t.Errorf("source language should not hit the provider, saw %d batches", len(svc.batches))
	}

	out := readOutput(t, filepath.Join(dir, "out", "common.en.json"))
	got := outputEntry(t, out, "greeting")
	if got.Translation != "Hello" || got.SourceHash != cache.Hash("Hello") {
		t.Errorf("pass-through entry = %+v, want self-referential hash", got)
	}
	if n, ok := out.Get("n"); !ok || n.Kind != i18next.KindPassthrough {
		t.Error("passthrough leaf lost")
	}
}

func TestRunOverrideWinsAndRehashes(t *testing.T) {
	dir := t.TempDir()
	source := writeFixture(t, dir, "common.en.json", `{"a": "Current source"}`)
	overridesPath := writeFixture(t, dir, "overrides.json", `{
		"common": {
			"en": {"a": "Forced"},
			"de": {"a": "Erzwungen"}
		}
	}`)

	table, err := override.Load(overridesPath)
	if err != nil {
		t.Fatalf("loading overrides: %v", err)
	}

	svc := &fakeService{available: true}
	cfg := testConfig(t, source, filepath.Join(dir, "out"), "en", "de")

	if err := Run(context.Background(), Options{Config: cfg, Service: svc, Overrides: table}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	wantHash := cache.Hash("Current source")

	en := readOutput(t, filepath.Join(dir, "out", "common.en.json"))
	if got := outputEntry(t, en, "a"); got.Translation != "Forced" || got.SourceHash != wantHash {
		t.Errorf("en override = %+v", got)
	}

	de := readOutput(t, filepath.Join(dir, "out", "common.de.json"))
	if got := outputEntry(t, de, "a"); got.Translation != "Erzwungen" || got.SourceHash != wantHash {
		t.Errorf("de override = %+v", got)
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	source := writeFixture(t, dir, "common.en.json", `{"greeting": "Hello"}`)

	svc := &fakeService{available: true}
	cfg := testConfig(t, source, filepath.Join(dir, "out"), "en", "de")
	cfg.DryRun = true

	var logged []string
	opts := Options{
		Config:  cfg,
		Service: svc,
		OnLog:   func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) },
	}

	if err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(svc.batches) != 0 {
		t.Error("dry run called the provider")
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Error("dry run wrote output")
	}

	var sawPlan bool
	for _, line := range logged {
		if strings.Contains(line, "to translate") {
			sawPlan = true
		}
	}
	if !sawPlan {
		t.Errorf("dry run should report the plan, logs: %v", logged)
	}
}

func TestRunOneLanguageFailureDoesNotAbortOthers(t *testing.T) {
	dir := t.TempDir()
	source := writeFixture(t, dir, "common.en.json", `{"greeting": "Hello"}`)

	svc := &fakeService{
		available: true,
		errFor:    map[string]error{"de": errors.New("quota exceeded")},
	}
	cfg := testConfig(t, source, filepath.Join(dir, "out"), "de", "fr")

	var failures []string
	opts := Options{
		Config:  cfg,
		Service: svc,
		OnError: func(format string, args ...any) { failures = append(failures, fmt.Sprintf(format, args...)) },
	}

	err := Run(context.Background(), opts)
	if err == nil {
		t.Fatal("expected run error")
	}
	if !strings.Contains(err.Error(), "1 language(s) failed") || !strings.Contains(err.Error(), "de") {
		t.Fatalf("error = %v", err)
	}

	// French completed regardless.
	fr := readOutput(t, filepath.Join(dir, "out", "common.fr.json"))
	if got := outputEntry(t, fr, "greeting"); got.Translation != "[fr] Hello" {
		t.Errorf("fr = %+v", got)
	}
	if len(failures) == 0 {
		t.Error("failure was not reported through OnError")
	}
}

func TestRunChunksBatchesAndReportsProgress(t *testing.T) {
	dir := t.TempDir()
	source := writeFixture(t, dir, "common.en.json", `{
		"a": "A", "b": "B", "c": "C", "d": "D", "e": "E"
	}`)

	svc := &fakeService{available: true}
	cfg := testConfig(t, source, filepath.Join(dir, "out"), "de")
	cfg.ChunkSize = 2

	type step struct{ done, total int }
	var progress []step
	opts := Options{
		Config:  cfg,
		Service: svc,
		OnProgress: func(lang string, done, total int) {
			progress = append(progress, step{done, total})
		},
	}

	if err := Run(context.Background(), opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(svc.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(svc.batches))
	}
	sizes := []int{len(svc.batches[0]), len(svc.batches[1]), len(svc.batches[2])}
	if sizes[0] != 2 || sizes[1] != 2 || sizes[2] != 1 {
		t.Errorf("chunk sizes = %v", sizes)
	}

	want := []step{{2, 5}, {4, 5}, {5, 5}}
	if len(progress) != len(want) {
		t.Fatalf("progress = %v", progress)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %v, want %v", i, progress[i], want[i])
		}
	}
}

func TestRunCanceledContext(t *testing.T) {
	dir := t.TempDir()
	source := writeFixture(t, dir, "common.en.json", `{"greeting": "Hello"}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := &fakeService{available: true}
	cfg := testConfig(t, source, filepath.Join(dir, "out"), "de")

	if err := Run(ctx, Options{Config: cfg, Service: svc}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunUnreadableSourceIsFatal(t *testing.T) {
	dir := t.TempDir()
	svc := &fakeService{available: true}
	cfg := testConfig(t, filepath.Join(dir, "missing.en.json"), filepath.Join(dir, "out"), "de")

	if err := Run(context.Background(), Options{Config: cfg, Service: svc}); err == nil {
		t.Fatal("missing source file must fail the run")
	}
}

func TestSplitKeys(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}

	if got := splitKeys(keys, 0); len(got) != 1 || len(got[0]) != 5 {
		t.Errorf("chunk size 0 should keep one batch, got %v", got)
	}
	if got := splitKeys(keys, 10); len(got) != 1 {
		t.Errorf("oversized chunk should keep one batch, got %v", got)
	}
	got := splitKeys(keys, 2)
	if len(got) != 3 || len(got[0]) != 2 || len(got[2]) != 1 {
		t.Errorf("splitKeys(5, 2) = %v", got)
	}
}
