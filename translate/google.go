package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// googleEndpoint is the Google Cloud Translation v2 REST endpoint.
const googleEndpoint = "https://translation.googleapis.com/language/translate/v2"

// Google is the fallback provider, speaking the Cloud Translation v2 API.
type Google struct {
	call *httpCall
}

// NewGoogle builds a Google Translate provider for the given API key.
func NewGoogle(apiKey string, opts Options) *Google {
	return &Google{
		call: &httpCall{
			provider:   "Google Translate",
			endpoint:   googleEndpoint + "?key=" + url.QueryEscape(apiKey),
			client:     makeHTTPClient(opts.Proxy, opts.effectiveTimeout()),
			maxRetries: opts.effectiveMaxRetries(),
			verbose:    opts.Verbose,
		},
	}
}

// Name implements Translator.
func (g *Google) Name() string {
	return "Google Translate"
}

// Supports implements Translator. Google covers everything the pipeline
// targets; as the fallback it accepts any language and lets the API reject
// codes it does not know.
func (g *Google) Supports(string) bool {
	return true
}

// Translate implements Translator. One request carries the whole batch.
func (g *Google) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	payload, err := json.Marshal(map[string]any{
		"q":      texts,
		"source": baseCode(sourceLang),
		"target": googleTarget(targetLang),
		"format": "text",
	})
	if err != nil {
		return nil, fmt.Errorf("google: encoding request: %w", err)
	}

	body, err := g.call.post(ctx, payload)
	if err != nil {
		return nil, err
	}

	results := gjson.GetBytes(body, "data.translations.#.translatedText").Array()
	out := make([]string, 0, len(texts))
	for _, r := range results {
		// The v2 API HTML-escapes quotes and ampersands even in text mode.
		out = append(out, html.UnescapeString(r.String()))
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("google: expected %d translations, got %d", len(texts), len(out))
	}

	return out, nil
}

// googleTarget converts a pipeline code to the dash form Google expects
// ("pt_BR" -> "pt-BR").
func googleTarget(lang string) string {
	return strings.ReplaceAll(lang, "_", "-")
}
