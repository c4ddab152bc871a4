// Package provider selects and constructs the LLM chat backend used for
// query classification and answer generation. Supported backends: Ollama,
// OpenAI, Azure OpenAI, AWS Bedrock (via the Ark-compatible endpoint), and
// Google Gemini. The concrete eino ChatModel is wrapped into the
// rag.ChatProvider capability interface by [NewChat].
package provider

import (
	"github.com/askdoc/askdoc-go/internal/rag"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendBedrock selects AWS Bedrock through an Ark-compatible endpoint.
	BackendBedrock Backend = "bedrock"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
)

// ProviderOllama holds Ollama-specific settings.
type ProviderOllama struct {
	// Host is the Ollama API endpoint.
	Host string
	// Model is the Ollama model name.
	Model string
}

// ProviderOpenAI holds OpenAI-specific settings.
type ProviderOpenAI struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the OpenAI model name.
	Model string
}

// ProviderAzureOpenAI holds Azure OpenAI-specific settings.
type ProviderAzureOpenAI struct {
	// APIKey is the Azure OpenAI API key.
	APIKey string
	// Endpoint is the Azure OpenAI resource endpoint.
	Endpoint string
	// Deployment is the deployment name queried in place of a model name.
	Deployment string
	// APIVersion is the Azure OpenAI REST API version.
	APIVersion string
}

// ProviderBedrock holds AWS Bedrock settings.
type ProviderBedrock struct {
	// ModelID is the Bedrock model identifier.
	ModelID string
	// BaseURL is the Bedrock-compatible endpoint.
	BaseURL string
	// APIKey is the bearer credential for the endpoint.
	APIKey string
}

// ProviderGemini holds Google Gemini settings.
type ProviderGemini struct {
	// APIKey is the Google API key.
	APIKey string
	// Model is the Gemini model name.
	Model string
}

// SharedTuning holds generation parameters applied across backends.
type SharedTuning struct {
	// MaxTokens caps the number of tokens generated per response.
	MaxTokens int
	// Temperature controls response randomness (0.0–1.0).
	Temperature float32
}

// Config holds all provider-level configuration, resolved from environment
// variables by [ConfigFromEnv] or supplied explicitly by the caller.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	Ollama      ProviderOllama
	OpenAI      ProviderOpenAI
	AzureOpenAI ProviderAzureOpenAI
	Bedrock     ProviderBedrock
	Gemini      ProviderGemini
	Tuning      SharedTuning
}

// Validate checks that the selected backend has all its required fields.
// Missing fields fail with *rag.ConfigurationError naming the env vars that
// would supply them, so operators get a clear fail-fast error at startup
// rather than a cryptic failure on the first request.
func (c *Config) Validate() error {
	var missing []string

	switch c.Backend {
	case BackendOllama:
		if c.Ollama.Host == "" {
			missing = append(missing, "OLLAMA_HOST")
		}
		if c.Ollama.Model == "" {
			missing = append(missing, "OLLAMA_MODEL")
		}
	case BackendOpenAI:
		if c.OpenAI.APIKey == "" {
			missing = append(missing, "OPENAI_API_KEY")
		}
		if c.OpenAI.Model == "" {
			missing = append(missing, "OPENAI_MODEL")
		}
	case BackendAzure:
		if c.AzureOpenAI.APIKey == "" {
			missing = append(missing, "AZURE_OPENAI_API_KEY")
		}
		if c.AzureOpenAI.Endpoint == "" {
			missing = append(missing, "AZURE_OPENAI_ENDPOINT")
		}
		if c.AzureOpenAI.Deployment == "" {
			missing = append(missing, "AZURE_OPENAI_DEPLOYMENT")
		}
	case BackendBedrock:
		if c.Bedrock.ModelID == "" {
			missing = append(missing, "BEDROCK_MODEL_ID")
		}
		if c.Bedrock.BaseURL == "" {
			missing = append(missing, "BEDROCK_BASE_URL")
		}
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			missing = append(missing, "GOOGLE_API_KEY")
		}
		if c.Gemini.Model == "" {
			missing = append(missing, "GEMINI_MODEL")
		}
	}

	if len(missing) > 0 {
		return &rag.ConfigurationError{Missing: missing}
	}
	return nil
}
