// Package config resolves everything one pipeline run needs into a single
// explicit struct: command-line flags, the optional .locpipe.yaml project
// file, environment variables and derived defaults. Nothing else in the
// program reads the process environment.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/locpipe/locpipe/langmeta"
)

// DefaultChunkSize is how many strings go into one provider request.
const DefaultChunkSize = 50

// DefaultNamespace is used when the source filename carries no namespace
// segment, e.g. en.json.
const DefaultNamespace = "translation"

// DefaultSourceLang is assumed when the filename carries no language code.
const DefaultSourceLang = "en"

// Config holds one run's fully resolved settings.
type Config struct {
	// SourceFile is the source-language JSON file, e.g. locales/common.en.json.
	SourceFile string
	// OutDir receives one output file per target language.
	OutDir string
	// CacheDir holds the previous run's output files used as translation
	// cache. Defaults to OutDir, so output doubles as cache.
	CacheDir string
	// OverridesFile is an optional manual-override table.
	OverridesFile string

	// Namespace and SourceLang are sniffed from the source filename when
	// not set explicitly.
	Namespace  string
	SourceLang string

	// Languages are the target codes. Empty means the caller's default set.
	Languages []string

	// Provider keys, already resolved (flag, env or credential store).
	DeepLKey  string
	GoogleKey string

	// HTTP behavior.
	Proxy      string
	Timeout    time.Duration
	MaxRetries int

	// ChunkSize caps how many strings one provider request carries.
	ChunkSize int

	// DryRun reports what would be translated without calling a provider
	// or writing files.
	DryRun bool
	// Retranslate ignores the cache and re-translates every key.
	Retranslate bool
	Verbose     bool

	// bareName is true when the source filename is just <lang>.json;
	// output files then omit the namespace prefix too.
	bareName bool
}

// Env carries the environment variables the pipeline honors.
type Env struct {
	// CacheDir comes from LOCPIPE_CACHE_DIR.
	CacheDir string
}

// FromEnv reads the pipeline's environment settings. Provider API keys are
// not handled here: they resolve through the settings package, which knows
// the flag > env > credential store order.
func FromEnv() Env {
	v := viper.New()
	v.SetEnvPrefix("locpipe")
	v.AutomaticEnv()

	return Env{
		CacheDir: v.GetString("cache_dir"),
	}
}

// ApplyFile fills unset fields from a project file. Flag values already in
// the config always win.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if c.SourceFile == "" {
		c.SourceFile = f.Source
	}
	if c.OutDir == "" {
		c.OutDir = f.OutDir
	}
	if c.CacheDir == "" {
		c.CacheDir = f.CacheDir
	}
	if c.OverridesFile == "" {
		c.OverridesFile = f.Overrides
	}
	if len(c.Languages) == 0 {
		c.Languages = f.Languages
	}
	if c.SourceLang == "" {
		c.SourceLang = f.SourceLang
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = f.ChunkSize
	}
	if c.Proxy == "" {
		c.Proxy = f.Proxy
	}
}

// ApplyEnv fills unset fields from the environment.
func (c *Config) ApplyEnv(e Env) {
	if c.CacheDir == "" {
		c.CacheDir = e.CacheDir
	}
}

// Normalize validates required fields and derives the rest: namespace and
// source language from the filename, cache directory from the output
// directory, chunk size from the default.
func (c *Config) Normalize() error {
	if c.SourceFile == "" {
		return fmt.Errorf("no source file: pass --source or set source in %s", FileName)
	}
	if c.OutDir == "" {
		return fmt.Errorf("no output directory: pass --out-dir or set out_dir in %s", FileName)
	}

	namespace, lang, bare := SplitSourceName(c.SourceFile)
	if c.Namespace == "" {
		c.Namespace = namespace
	}
	if c.SourceLang == "" {
		c.SourceLang = lang
	}
	c.bareName = bare

	if c.CacheDir == "" {
		c.CacheDir = c.OutDir
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	return nil
}

// SplitSourceName derives (namespace, language) from a source filename.
//
//	common.en.json        → ("common", "en")
//	app.settings.en.json  → ("app.settings", "en")
//	en.json               → ("translation", "en"), bare
//	common.json           → ("common", "en")
//
// A segment counts as a language code only when the language registry
// knows it, so namespaces that merely look like codes don't misfire.
func SplitSourceName(path string) (namespace, lang string, bare bool) {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	parts := strings.Split(name, ".")

	last := parts[len(parts)-1]
	if langmeta.Known(last) {
		if len(parts) == 1 {
			return DefaultNamespace, last, true
		}
		return strings.Join(parts[:len(parts)-1], "."), last, false
	}
	return name, DefaultSourceLang, false
}

// OutputPath returns the output file for a target language, following the
// source file's naming shape.
func (c *Config) OutputPath(lang string) string {
	return filepath.Join(c.OutDir, c.fileName(lang))
}

// CachePath returns where the previous run's output for a language is
// expected, for use as a translation cache.
func (c *Config) CachePath(lang string) string {
	return filepath.Join(c.CacheDir, c.fileName(lang))
}

func (c *Config) fileName(lang string) string {
	if c.bareName {
		return lang + ".json"
	}
	return c.Namespace + "." + lang + ".json"
}
