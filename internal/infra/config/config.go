// Package config provides application-wide configuration loaded from env vars.
// All fields have safe defaults so the binary runs locally without any env
// setup, except API keys which default to empty and disable their provider.
package config

import "os"

// Config holds runtime configuration for the HRNexus assistant.
type Config struct {
	// LLM
	LLMProvider       string // LLM_PROVIDER — default: "openrouter"
	OpenRouterBaseURL string // OPENROUTER_BASE_URL — default: "https://openrouter.ai/api/v1"
	OpenRouterAPIKey  string // OPENROUTER_API_KEY — no default
	ChatModel         string // CHAT_MODEL — default: "x-ai/grok-4.1-fast"
	EmbedModel        string // EMBED_MODEL — default: "openai/text-embedding-3-small"

	// Web search
	TavilyBaseURL string // TAVILY_BASE_URL — default: "https://api.tavily.com"
	TavilyAPIKey  string // TAVILY_API_KEY — no default

	// Data
	DBPath  string // DB_PATH — default: "hrnexus.db"
	KBDir   string // KB_DIR — markdown knowledge base, default: "sources/kb"
	DataDir string // DATA_DIR — JSON datasets, default: "sources/json_files"

	// Downstream formatter
	FormatterConfigPath string // FORMATTER_CONFIG — default: "agents.yaml"
}

const (
	envKeyLLMProvider       = "LLM_PROVIDER"
	envKeyOpenRouterBaseURL = "OPENROUTER_BASE_URL"
	envKeyOpenRouterAPIKey  = "OPENROUTER_API_KEY"
	envKeyChatModel         = "CHAT_MODEL"
	envKeyEmbedModel        = "EMBED_MODEL"
	envKeyTavilyBaseURL     = "TAVILY_BASE_URL"
	envKeyTavilyAPIKey      = "TAVILY_API_KEY"
	envKeyDBPath            = "DB_PATH"
	envKeyKBDir             = "KB_DIR"
	envKeyDataDir           = "DATA_DIR"
	envKeyFormatterConfig   = "FORMATTER_CONFIG"
)

// Load reads configuration from environment variables, applying defaults for missing values.
func Load() Config {
	return Config{
		LLMProvider:         envOr(envKeyLLMProvider, "openrouter"),
		OpenRouterBaseURL:   envOr(envKeyOpenRouterBaseURL, "https://openrouter.ai/api/v1"),
		OpenRouterAPIKey:    os.Getenv(envKeyOpenRouterAPIKey),
		ChatModel:           envOr(envKeyChatModel, "x-ai/grok-4.1-fast"),
		EmbedModel:          envOr(envKeyEmbedModel, "openai/text-embedding-3-small"),
		TavilyBaseURL:       envOr(envKeyTavilyBaseURL, "https://api.tavily.com"),
		TavilyAPIKey:        os.Getenv(envKeyTavilyAPIKey),
		DBPath:              envOr(envKeyDBPath, "hrnexus.db"),
		KBDir:               envOr(envKeyKBDir, "sources/kb"),
		DataDir:             envOr(envKeyDataDir, "sources/json_files"),
		FormatterConfigPath: envOr(envKeyFormatterConfig, "agents.yaml"),
	}
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
