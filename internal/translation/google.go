// Package translation adapts machine-translation providers behind a single
// Translate contract. The default provider is the free Google Translate web
// endpoint; selection happens at configuration time via New.
package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vaibh/video-dubbing/internal/errs"
)

// SupportedLanguages maps the target language codes we accept to their
// display names.
var SupportedLanguages = map[string]string{
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"ar": "Arabic",
	"hi": "Hindi",
	"nl": "Dutch",
	"sv": "Swedish",
	"no": "Norwegian",
	"da": "Danish",
	"fi": "Finnish",
	"pl": "Polish",
	"tr": "Turkish",
	"he": "Hebrew",
	"th": "Thai",
	"vi": "Vietnamese",
}

const (
	googleFreeEndpoint = "https://translate.googleapis.com/translate_a/single"
	requestTimeout     = 30 * time.Second
)

// GoogleTranslator translates through the free Google Translate web
// endpoint (no API key).
type GoogleTranslator struct {
	endpoint string
	client   *http.Client
}

// New returns the translator for the named provider. Unknown providers are a
// configuration error, not a runtime fallback.
func New(provider string) (*GoogleTranslator, error) {
	switch provider {
	case "", "google_free":
		return &GoogleTranslator{
			endpoint: googleFreeEndpoint,
			client:   &http.Client{Timeout: requestTimeout},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// Translate converts text to the target language. Unknown codes fail with
// ErrUnsupportedLanguage before any network call.
func (t *GoogleTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if _, ok := SupportedLanguages[targetLanguage]; !ok {
		return "", errs.Wrapf(errs.ErrUnsupportedLanguage, "translate", "", "%s", targetLanguage)
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", "auto")
	query.Set("tl", targetLanguage)
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "translate", "build request", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "translate", "request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "translate", "read response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", errs.Wrapf(errs.ErrUpstream, "translate", "", "%s: %s", resp.Status, string(body))
	}

	translated, err := parseResponse(body)
	if err != nil {
		return "", err
	}
	return translated, nil
}

// parseResponse assembles the translated text out of the gtx endpoint's
// nested-array payload: [[["translated","original",...],...],...].
func parseResponse(body []byte) (string, error) {
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "translate", "parse response", err)
	}
	if len(payload) == 0 {
		return "", errs.Wrapf(errs.ErrUpstream, "translate", "parse response", "empty payload")
	}

	var segments [][]json.RawMessage
	if err := json.Unmarshal(payload[0], &segments); err != nil {
		return "", errs.Wrap(errs.ErrUpstream, "translate", "parse segments", err)
	}

	var out strings.Builder
	for _, segment := range segments {
		if len(segment) == 0 {
			continue
		}
		var text string
		if err := json.Unmarshal(segment[0], &text); err != nil {
			continue
		}
		out.WriteString(text)
	}
	return out.String(), nil
}
