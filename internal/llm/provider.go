package llm

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/acedatacloud/dashsnap/internal/config"
	"github.com/acedatacloud/dashsnap/internal/domain"
)

type ProviderConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// NewProviderFromConfig builds the enrichment provider from config,
// resolving the API key from the configured environment variable. A
// missing key returns domain.ErrLLMNotConfigured, which callers treat
// as "enrichment disabled" rather than a failure.
func NewProviderFromConfig(cfg config.OpenAIConfig) (domain.LLMProvider, error) {
	apiKey := ResolveAPIKey(cfg.APIKeyEnv)
	if apiKey == "" {
		return nil, domain.ErrLLMNotConfigured
	}
	if cfg.BaseURL == "" {
		return nil, domain.ErrLLMMissingBaseURL
	}
	if cfg.Model == "" {
		return nil, domain.ErrLLMMissingModel
	}

	pcfg := ProviderConfig{
		APIKey:      apiKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}

	return NewProvider(pcfg)
}

func NewProvider(cfg ProviderConfig) (domain.LLMProvider, error) {
	if cfg.APIKey == "" {
		return nil, domain.ErrLLMMissingAPIKey
	}
	if cfg.BaseURL == "" {
		return nil, domain.ErrLLMMissingBaseURL
	}
	if cfg.Model == "" {
		return nil, domain.ErrLLMMissingModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	return NewOpenAIProvider(cfg, httpClient)
}

// ResolveAPIKey reads the API key from envName, falling back to the
// default key variable when envName is empty.
func ResolveAPIKey(envName string) string {
	if envName == "" {
		envName = config.DefaultOpenAIKeyEnv
	}
	return strings.TrimSpace(os.Getenv(envName))
}
