package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// APIError is a non-2xx response from a provider endpoint.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.Status, truncate(e.Body, 200))
}

// Transient reports whether the error is a rate-limit or quota condition.
// DeepL signals an exhausted character quota with status 456.
func (e *APIError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status == 456
}

// makeHTTPClient builds an HTTP client with proxy support.
func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both --proxy flag and HTTP_PROXY/HTTPS_PROXY env vars
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// httpCall is one POST endpoint together with the retry behavior every
// provider shares: exponential backoff on transport errors and 5xx, a
// rate-limit wait on 429, fail-fast on everything else.
type httpCall struct {
	provider   string
	endpoint   string
	headers    map[string]string
	client     *http.Client
	maxRetries int
	verbose    bool
}

func (c *httpCall) post(ctx context.Context, payload []byte) ([]byte, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range c.headers {
			req.Header.Set(k, v)
		}

		if c.verbose {
			log.Printf("[DEBUG] %s attempt %d: POST %s (%d bytes)", c.provider, attempt+1, req.URL.Path, len(payload))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(wait):
				}
				continue
			}
			return nil, fmt.Errorf("%s request failed: %w", c.provider, err)
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil

		case resp.StatusCode == http.StatusTooManyRequests:
			if attempt < c.maxRetries {
				delay := retryDelay(resp.Header.Get("Retry-After"), body)
				if c.verbose {
					log.Printf("[DEBUG] %s rate limited, waiting %v (attempt %d/%d)", c.provider, delay, attempt+1, c.maxRetries)
				}
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				continue
			}
			return nil, &APIError{Provider: c.provider, Status: resp.StatusCode, Body: string(body)}

		case resp.StatusCode >= 500 && attempt < c.maxRetries:
			wait := time.Duration(math.Pow(2, float64(attempt))) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue

		default:
			return nil, &APIError{Provider: c.provider, Status: resp.StatusCode, Body: string(body)}
		}
	}

	return nil, fmt.Errorf("%s: exhausted all %d retries", c.provider, c.maxRetries)
}

// retryDelay works out how long to wait after a 429. The Retry-After header
// wins; some APIs put a RetryInfo detail in the error body instead. Falls
// back to 65 seconds (a minute window plus buffer).
func retryDelay(retryAfter string, body []byte) time.Duration {
	const defaultDelay = 65 * time.Second

	if retryAfter != "" {
		if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
			return time.Duration(secs)*time.Second + 5*time.Second
		}
	}

	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return defaultDelay
	}

	for _, detail := range errResp.Error.Details {
		if strings.Contains(detail.Type, "RetryInfo") && detail.RetryDelay != "" {
			// Durations come as "30s", "1.5m" style strings.
			d := strings.TrimSuffix(detail.RetryDelay, "s")
			if secs, err := strconv.ParseFloat(d, 64); err == nil {
				return time.Duration(secs*1000)*time.Millisecond + 5*time.Second
			}
		}
	}

	return defaultDelay
}

// truncate shortens s for error messages and logs.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
