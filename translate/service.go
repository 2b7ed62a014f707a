package translate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/locpipe/locpipe/placeholder"
)

// ErrNoProvider means no configured provider could take the batch.
var ErrNoProvider = errors.New("no translation provider available")

// Breaker settings: open after three straight primary failures, probe again
// after a minute. While open, batches go directly to the fallback.
const (
	breakerTripAfter = 3
	breakerCooldown  = time.Minute
)

// Service routes translation batches through the provider chain. Placeholder
// protection and punctuation normalization happen here, so both providers
// always see the same protected text.
type Service struct {
	opts     Options
	primary  Translator
	fallback Translator
	breaker  *gobreaker.CircuitBreaker
}

// NewService builds the provider chain from the configured API keys. A
// missing key leaves that provider unavailable and is logged, never fatal.
func NewService(opts Options) *Service {
	s := &Service{opts: opts}

	if opts.DeepLKey != "" {
		s.primary = NewDeepL(opts.DeepLKey, opts)
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "deepl",
			MaxRequests: 1,
			Timeout:     breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTripAfter
			},
		})
	} else {
		opts.log("DeepL API key not set, primary provider unavailable")
	}

	if opts.GoogleKey != "" {
		s.fallback = NewGoogle(opts.GoogleKey, opts)
	} else {
		opts.log("Google API key not set, fallback provider unavailable")
	}

	return s
}

// NewServiceWith wires an explicit provider pair, used by tests and by
// anything that needs to stub a provider out.
func NewServiceWith(primary, fallback Translator, opts Options) *Service {
	s := &Service{opts: opts, primary: primary, fallback: fallback}
	if primary != nil {
		s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "primary",
			MaxRequests: 1,
			Timeout:     breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerTripAfter
			},
		})
	}
	return s
}

// Available reports whether at least one provider is configured.
func (s *Service) Available() bool {
	return s.primary != nil || s.fallback != nil
}

// TranslateBatch translates texts from sourceLang into targetLang and
// returns results in input order. Placeholders are swapped for sentinels
// before any provider sees the batch and restored afterwards; trailing
// punctuation the engine invented is stripped. A nil error means every text
// has a result.
func (s *Service) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	protected := make([]string, len(texts))
	markers := make([]map[string]string, len(texts))
	for i, text := range texts {
		protected[i], markers[i] = placeholder.Extract(text)
	}

	raw, err := s.translateProtected(ctx, protected, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(raw))
	for i, r := range raw {
		restored := placeholder.Restore(r, markers[i])
		out[i] = NormalizePunctuation(texts[i], restored)
	}
	return out, nil
}

// translateProtected runs the provider selection policy: primary when it
// supports the target language and its breaker is closed, fallback on
// primary failure or an unsupported language.
func (s *Service) translateProtected(ctx context.Context, protected []string, sourceLang, targetLang string) ([]string, error) {
	var primaryErr error

	if s.primary != nil {
		if !s.primary.Supports(targetLang) {
			s.opts.log("%s does not support %q, using fallback", s.primary.Name(), targetLang)
		} else {
			results, err := s.callPrimary(ctx, protected, sourceLang, targetLang)
			if err == nil {
				return results, nil
			}
			if ctx.Err() != nil {
				return nil, err
			}
			primaryErr = err
			s.logPrimaryFailure(err)
		}
	}

	if s.fallback != nil {
		results, err := s.fallback.Translate(ctx, protected, sourceLang, targetLang)
		if err == nil {
			return results, nil
		}
		if primaryErr != nil {
			return nil, fmt.Errorf("both providers failed: %v; fallback: %w", primaryErr, err)
		}
		return nil, fmt.Errorf("%s: %w", s.fallback.Name(), err)
	}

	if primaryErr != nil {
		return nil, primaryErr
	}
	return nil, ErrNoProvider
}

func (s *Service) callPrimary(ctx context.Context, protected []string, sourceLang, targetLang string) ([]string, error) {
	results, err := s.breaker.Execute(func() (any, error) {
		return s.primary.Translate(ctx, protected, sourceLang, targetLang)
	})
	if err != nil {
		return nil, err
	}
	return results.([]string), nil
}

func (s *Service) logPrimaryFailure(err error) {
	var apiErr *APIError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		s.opts.log("%s circuit open, routing to fallback", s.primary.Name())
	case errors.As(err, &apiErr) && apiErr.Transient():
		s.opts.logError("%s rate limited or out of quota, trying fallback: %v", s.primary.Name(), err)
	default:
		s.opts.logError("%s failed, trying fallback: %v", s.primary.Name(), err)
	}
}
