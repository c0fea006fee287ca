package llm

import "fmt"

// Supported provider names recognized by the factory.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
)

// FactoryConfig selects and credentials a provider. It is read from process
// configuration once at boot; the constructed adapter keeps the selected
// identity for its whole lifetime.
type FactoryConfig struct {
	Provider     string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
}

// NewProvider constructs the configured provider adapter. Missing secrets and
// unknown provider names surface as a *ConfigError before any network call.
func NewProvider(cfg FactoryConfig) (Provider, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel})
	case ProviderGemini:
		return NewGeminiProvider(GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
	case ProviderMock:
		return NewMockProvider("The book covers perception, planning and control."), nil
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unsupported provider %q (use %q or %q)", cfg.Provider, ProviderGemini, ProviderOpenAI)}
	}
}
