package llm

import (
	"fmt"
	"net/http"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOpenRouterAppName = "quizzly"
)

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible endpoint.
// Model IDs are passed through untouched ("vendor/model").
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	appName := cfg.AppName
	if appName == "" {
		appName = defaultOpenRouterAppName
	}

	headers := http.Header{"X-Title": {appName}}
	if cfg.SiteURL != "" {
		headers.Set("HTTP-Referer", cfg.SiteURL)
	}
	hc := &http.Client{Transport: &headerTransport{base: http.DefaultTransport, headers: headers}}

	return &OpenRouterProvider{OpenAIProvider: newChatProvider(cfg.APIKey, baseURL, cfg.Model, hc)}, nil
}

// headerTransport adds fixed headers to every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func (t *headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header[k] = v
	}
	return t.base.RoundTrip(r)
}
