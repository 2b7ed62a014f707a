package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// deeplTargets is the fixed allow-list of target languages DeepL accepts,
// keyed by lowercase pipeline code. Languages absent here route to the
// fallback provider. Regional variants map to DeepL's regioned codes.
var deeplTargets = map[string]string{
	"ar":    "AR",
	"bg":    "BG",
	"cs":    "CS",
	"da":    "DA",
	"de":    "DE",
	"el":    "EL",
	"en":    "EN-US",
	"en-gb": "EN-GB",
	"en-us": "EN-US",
	"es":    "ES",
	"et":    "ET",
	"fi":    "FI",
	"fr":    "FR",
	"hu":    "HU",
	"id":    "ID",
	"it":    "IT",
	"ja":    "JA",
	"ko":    "KO",
	"lt":    "LT",
	"lv":    "LV",
	"nb":    "NB",
	"nl":    "NL",
	"pl":    "PL",
	"pt":    "PT-PT",
	"pt-br": "PT-BR",
	"pt-pt": "PT-PT",
	"ro":    "RO",
	"ru":    "RU",
	"sk":    "SK",
	"sl":    "SL",
	"sv":    "SV",
	"tr":    "TR",
	"uk":    "UK",
	"zh":    "ZH",
}

// SupportedTargets returns the base-code languages of the primary
// provider's allow-list, sorted. This is the default target set when no
// explicit language list is given.
func SupportedTargets() []string {
	var codes []string
	for code := range deeplTargets {
		if !strings.Contains(code, "-") {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// deeplTarget resolves a pipeline language code against the allow-list,
// falling back from regional variants to the base language.
func deeplTarget(lang string) (string, bool) {
	code := strings.ToLower(strings.ReplaceAll(lang, "_", "-"))
	if t, ok := deeplTargets[code]; ok {
		return t, true
	}
	if i := strings.Index(code, "-"); i > 0 {
		if t, ok := deeplTargets[code[:i]]; ok {
			return t, true
		}
	}
	return "", false
}

// deeplEndpoint picks the API host. Free-tier keys carry a ":fx" suffix and
// live on a separate host.
func deeplEndpoint(apiKey string) string {
	if strings.HasSuffix(apiKey, ":fx") {
		return "https://api-free.deepl.com/v2/translate"
	}
	return "https://api.deepl.com/v2/translate"
}

// DeepL is the primary provider, speaking the DeepL REST v2 API.
type DeepL struct {
	call *httpCall
}

// NewDeepL builds a DeepL provider for the given API key.
func NewDeepL(apiKey string, opts Options) *DeepL {
	return &DeepL{
		call: &httpCall{
			provider:   "DeepL",
			endpoint:   deeplEndpoint(apiKey),
			headers:    map[string]string{"Authorization": "DeepL-Auth-Key " + apiKey},
			client:     makeHTTPClient(opts.Proxy, opts.effectiveTimeout()),
			maxRetries: opts.effectiveMaxRetries(),
			verbose:    opts.Verbose,
		},
	}
}

// Name implements Translator.
func (d *DeepL) Name() string {
	return "DeepL"
}

// Supports implements Translator via the fixed target allow-list.
func (d *DeepL) Supports(lang string) bool {
	_, ok := deeplTarget(lang)
	return ok
}

// Translate implements Translator. One request carries the whole batch.
func (d *DeepL) Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	target, ok := deeplTarget(targetLang)
	if !ok {
		return nil, fmt.Errorf("deepl: unsupported target language %q", targetLang)
	}

	payload, err := json.Marshal(map[string]any{
		"text":        texts,
		"source_lang": strings.ToUpper(baseCode(sourceLang)),
		"target_lang": target,
	})
	if err != nil {
		return nil, fmt.Errorf("deepl: encoding request: %w", err)
	}

	body, err := d.call.post(ctx, payload)
	if err != nil {
		return nil, err
	}

	results := gjson.GetBytes(body, "translations.#.text").Array()
	out := make([]string, 0, len(texts))
	for _, r := range results {
		out = append(out, r.String())
	}
	if len(out) != len(texts) {
		return nil, fmt.Errorf("deepl: expected %d translations, got %d", len(texts), len(out))
	}

	return out, nil
}
