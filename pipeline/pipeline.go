// Package pipeline drives one full localization run: read the source file,
// work out per language which strings need translating, call the
// providers, merge the results with the cache and manual overrides, and
// write one output file per language.
//
// Languages are processed strictly one at a time. A failure in one
// language is logged and counted but never aborts the others; the run's
// error names the failed languages at the end.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/locpipe/locpipe/cache"
	"github.com/locpipe/locpipe/config"
	"github.com/locpipe/locpipe/i18next"
	"github.com/locpipe/locpipe/langmeta"
	"github.com/locpipe/locpipe/merge"
	"github.com/locpipe/locpipe/override"
)

// Translator is the slice of the translation service the pipeline uses.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
	Available() bool
}

// Options configures a run.
type Options struct {
	Config  *config.Config
	Service Translator

	// Overrides is the loaded override table; nil means none.
	Overrides *override.Table

	// OnLog receives progress messages.
	OnLog func(format string, args ...any)
	// OnError receives per-language failure messages.
	OnError func(format string, args ...any)
	// OnProgress is called after each translated chunk.
	OnProgress func(lang string, done, total int)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	}
}

// Run executes the pipeline for every configured target language.
// Local I/O trouble with the source file is fatal; everything after that
// is contained per language.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if opts.Overrides == nil {
		opts.Overrides = override.Empty()
	}

	root, err := i18next.ParseFile(cfg.SourceFile)
	if err != nil {
		return err
	}
	source, err := i18next.Flatten(root)
	if err != nil {
		return fmt.Errorf("flattening %s: %w", cfg.SourceFile, err)
	}

	opts.log("Source %s: %d keys, %d translatable", cfg.SourceFile, source.Len(), len(textKeys(source)))

	if !opts.Service.Available() {
		opts.log("no translation provider configured, only cached strings will be written")
	}

	var failedLangs []string
	for _, lang := range cfg.Languages {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := runLanguage(ctx, source, lang, opts); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			opts.logError("Error translating %s: %v", lang, err)
			failedLangs = append(failedLangs, lang)
			continue
		}
	}

	if len(failedLangs) > 0 {
		return fmt.Errorf("%d language(s) failed: %s", len(failedLangs), strings.Join(failedLangs, ", "))
	}
	return nil
}

// runLanguage produces one language's output file. The returned error
// marks the language as failed, but a partially translated file may still
// have been written: cached data keeps the output complete.
func runLanguage(ctx context.Context, source *i18next.FlatMap, lang string, opts Options) error {
	cfg := opts.Config
	meta := langmeta.Resolve(lang)
	overrides := opts.Overrides.ForLanguage(cfg.Namespace, lang)

	if lang == cfg.SourceLang {
		// Pass-through: the source is authoritative for its own language.
		// Each string becomes an entry whose hash is its own digest.
		fresh := make(map[string]string)
		for _, key := range textKeys(source) {
			n, _ := source.Get(key)
			fresh[key] = n.Text
		}
		if cfg.DryRun {
			opts.log("%s (%s): source language, %d keys pass through", lang, meta.Name, len(fresh))
			return nil
		}
		result := merge.Build(merge.Input{
			Source:    source,
			Snapshot:  cache.Empty(),
			Fresh:     fresh,
			Overrides: overrides,
		})
		return writeLanguage(result, lang, opts)
	}

	snapshot, err := cache.Load(cfg.CachePath(lang))
	if err != nil {
		// The cache is a derived artifact; a corrupt one costs a
		// re-translation, not the run.
		opts.logError("ignoring unreadable cache for %s: %v", lang, err)
		snapshot = cache.Empty()
	}

	var todo []string
	if cfg.Retranslate {
		todo = textKeys(source)
	} else {
		todo = snapshot.FilterChanged(source)
	}

	if cfg.DryRun {
		upToDate := len(textKeys(source)) - len(todo)
		opts.log("%s (%s): %d up to date, %d to translate", lang, meta.Name, upToDate, len(todo))
		return nil
	}

	fresh := make(map[string]string, len(todo))
	var translationErr error

	if len(todo) > 0 {
		opts.log("Translating %s (%s): %d of %d keys", lang, meta.Name, len(todo), len(textKeys(source)))

		chunks := splitKeys(todo, cfg.ChunkSize)
		done := 0
		for i, chunk := range chunks {
			select {
			case <-ctx.Done():
				translationErr = ctx.Err()
			default:
			}
			if translationErr != nil {
				break
			}

			if cfg.Verbose {
				opts.log("  chunk %d/%d (%d keys)", i+1, len(chunks), len(chunk))
			}

			results, err := opts.Service.TranslateBatch(ctx, gatherTexts(source, chunk), cfg.SourceLang, lang)
			if err != nil {
				if ctx.Err() != nil {
					translationErr = ctx.Err()
				} else {
					translationErr = fmt.Errorf("translating chunk %d/%d: %w", i+1, len(chunks), err)
				}
				break
			}

			for j, key := range chunk {
				fresh[key] = results[j]
			}
			done += len(chunk)
			if opts.OnProgress != nil {
				opts.OnProgress(lang, done, len(todo))
			}
		}
	}

	// Write even after a failed batch: cached entries are retained so the
	// file never regresses to missing data.
	result := merge.Build(merge.Input{
		Source:    source,
		Snapshot:  snapshot,
		Fresh:     fresh,
		Overrides: overrides,
	})
	if err := writeLanguage(result, lang, opts); err != nil {
		return err
	}
	return translationErr
}

// writeLanguage rebuilds the nested tree and writes the output file.
func writeLanguage(result merge.Result, lang string, opts Options) error {
	tree, err := i18next.Unflatten(result.Flat)
	if err != nil {
		return err
	}

	path := opts.Config.OutputPath(lang)
	if err := i18next.WriteFile(path, tree); err != nil {
		return err
	}

	opts.log("Saved %s: %d new, %d reused, %d forced", path, result.Updated, result.Reused, result.Forced)
	if result.Retained > 0 {
		opts.log("  %d stale translation(s) kept for retry", result.Retained)
	}
	if len(result.Missing) > 0 {
		opts.logError("%s: %d key(s) have no translation yet", path, len(result.Missing))
	}
	return nil
}

// textKeys lists the translatable keys of a flat source in order.
func textKeys(source *i18next.FlatMap) []string {
	var keys []string
	for _, key := range source.Keys() {
		if n, _ := source.Get(key); n.Kind == i18next.KindText {
			keys = append(keys, key)
		}
	}
	return keys
}

// gatherTexts collects the source strings for a set of keys.
func gatherTexts(source *i18next.FlatMap, keys []string) []string {
	texts := make([]string, len(keys))
	for i, key := range keys {
		n, _ := source.Get(key)
		texts[i] = n.Text
	}
	return texts
}

// splitKeys divides keys into chunks of the given size.
func splitKeys(keys []string, chunkSize int) [][]string {
	if chunkSize <= 0 || chunkSize >= len(keys) {
		return [][]string{keys}
	}
	var chunks [][]string
	for i := 0; i < len(keys); i += chunkSize {
		end := i + chunkSize
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[i:end])
	}
	return chunks
}
