package localization

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"matchpush/pkg/logger"
)

// Translator localizes team names and category codes for the push
// payload. Failures are never fatal: callers always get a usable string.
type Translator interface {
	// Translate returns the localized form of value, or value itself when
	// translation is unavailable.
	Translate(ctx context.Context, value string) string
}

type httpTranslator struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

func NewHTTPTranslator(baseURL string, timeout time.Duration, log *logger.Logger) Translator {
	return &httpTranslator{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (t *httpTranslator) Translate(ctx context.Context, value string) string {
	if t.baseURL == "" || value == "" {
		return value
	}

	endpoint := t.baseURL + "/v1/translate?q=" + url.QueryEscape(value)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return value
	}
	resp, err := t.http.Do(req)
	if err != nil {
		if t.log != nil {
			t.log.Errorf("translation lookup failed for %q: %v", value, err)
		}
		return value
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return value
	}

	var out struct {
		Translated string `json:"translated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.Translated == "" {
		return value
	}
	return out.Translated
}

// NoopTranslator always falls back to the input value.
type NoopTranslator struct{}

func (NoopTranslator) Translate(ctx context.Context, value string) string {
	return value
}
