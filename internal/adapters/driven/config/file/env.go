package file

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragcore/internal/logger"
)

// Environment variables read by the config store.
const (
	EnvProvider    = "RAGCORE_EMBEDDING_PROVIDER"
	EnvModel       = "RAGCORE_EMBEDDING_MODEL"
	EnvBaseURL     = "RAGCORE_EMBEDDING_BASE_URL"
	EnvOpenAIKey   = "OPENAI_API_KEY"
	EnvGeminiKey   = "GEMINI_API_KEY"
	keyProvider    = "embedding.provider"
	keyModel       = "embedding.model"
	keyBaseURL     = "embedding.base_url"
	keyAPIKey      = "embedding.api_key"
	providerOpenAI = "openai"
	providerGemini = "gemini"
)

var envNames = []string{EnvProvider, EnvModel, EnvBaseURL, EnvOpenAIKey, EnvGeminiKey}

// readEnv collects the variables in envNames. The process environment wins
// over .env files, and earlier files win over later ones.
func (s *ConfigStore) readEnv() map[string]string {
	raw := make(map[string]string)

	for i := len(s.envFiles) - 1; i >= 0; i-- {
		path := s.envFiles[i]
		if _, err := os.Stat(path); err != nil {
			continue
		}
		vars, err := godotenv.Read(path)
		if err != nil {
			logger.Warn("config: reading %s: %v", path, err)
			continue
		}
		for _, name := range envNames {
			if v, ok := vars[name]; ok {
				raw[name] = v
			}
		}
	}

	for _, name := range envNames {
		if v, ok := s.lookup(name); ok {
			raw[name] = v
		}
	}
	return raw
}

// envOverrides maps raw variables onto config keys. An API key variable
// only applies when its provider is the effective one.
func envOverrides(raw map[string]string, data map[string]any) map[string]any {
	out := make(map[string]any)

	provider, _ := data[keyProvider].(string)
	if v := strings.TrimSpace(raw[EnvProvider]); v != "" {
		provider = strings.ToLower(v)
		out[keyProvider] = provider
	}
	if v := strings.TrimSpace(raw[EnvModel]); v != "" {
		out[keyModel] = v
	}
	if v := strings.TrimSpace(raw[EnvBaseURL]); v != "" {
		out[keyBaseURL] = v
	}

	switch provider {
	case providerOpenAI:
		if v := strings.TrimSpace(raw[EnvOpenAIKey]); v != "" {
			out[keyAPIKey] = v
		}
	case providerGemini:
		if v := strings.TrimSpace(raw[EnvGeminiKey]); v != "" {
			out[keyAPIKey] = v
		}
	}
	return out
}
