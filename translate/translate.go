// Package translate sends batches of source strings to remote translation
// APIs.
//
// Two providers are wired in: DeepL as the primary and Google Translate as
// the fallback. A Service ties them together: it protects template
// placeholders before any text leaves the process, routes each batch to the
// primary when it supports the target language (and its circuit breaker is
// closed), falls back to Google otherwise, then restores placeholders and
// normalizes trailing punctuation on the way back. Callers get plain
// (results, error) returns; a failed batch is the caller's cue to keep
// previously cached translations.
package translate

import (
	"context"
	"strings"
	"time"
)

// Translator is one remote translation service. Implementations send a
// single batched request per call.
type Translator interface {
	// Name identifies the provider in logs and error messages.
	Name() string
	// Supports reports whether the provider can translate into lang.
	Supports(lang string) bool
	// Translate sends one batch and returns translations in input order.
	Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}

// Options controls provider construction and shared request behavior.
type Options struct {
	// DeepLKey is the DeepL API key. Empty leaves the primary unavailable.
	DeepLKey string
	// GoogleKey is the Google Translate API key. Empty leaves the fallback
	// unavailable.
	GoogleKey string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout is the per-request timeout. Default: 60s.
	Timeout time.Duration
	// MaxRetries is the retry budget per request for rate limits and 5xx.
	// Default: 3.
	MaxRetries int
	// Verbose enables request-level debug logging.
	Verbose bool
	// OnLog emits progress messages.
	OnLog func(format string, args ...any)
	// OnError emits error messages.
	OnError func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveTimeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return 60 * time.Second
}

func (o *Options) effectiveMaxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return 3
}

// baseCode reduces a language code to its lowercase two-letter base:
// "pt_BR" and "pt-br" both become "pt".
func baseCode(lang string) string {
	code := strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
	if i := strings.Index(code, "-"); i > 0 {
		return code[:i]
	}
	return code
}

// terminalPunctuation is the set of sentence-ending marks the normalization
// pass looks at. ASCII plus the single-rune ellipsis; deliberately
// locale-naive.
const terminalPunctuation = ".!?…"

// NormalizePunctuation strips trailing sentence punctuation that the engine
// invented: when the source text does not end in a terminal mark but the
// translation does, the trailing marks are removed. Sources that end in
// punctuation keep the translation untouched.
func NormalizePunctuation(source, translated string) string {
	if translated == "" || endsInTerminalMark(source) {
		return translated
	}

	stripped := strings.TrimRight(translated, terminalPunctuation)
	return strings.TrimRight(stripped, " ")
}

func endsInTerminalMark(s string) bool {
	t := strings.TrimRight(s, " ")
	if t == "" {
		return false
	}
	runes := []rune(t)
	return strings.ContainsRune(terminalPunctuation, runes[len(runes)-1])
}
