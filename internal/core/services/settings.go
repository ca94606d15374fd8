package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
	"github.com/custodia-labs/ragcore/internal/core/ports/driving"
	"github.com/custodia-labs/ragcore/internal/logger"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyChunkSize           = "chunking.chunk_size"
	KeyChunkOverlap        = "chunking.chunk_overlap"
	KeyRowMode             = "chunking.row_mode"
	KeyTopK                = "retrieval.top_k"
	KeySimilarityThreshold = "retrieval.similarity_threshold"
	KeySimilarityWeight    = "retrieval.similarity_weight"
	KeyRecencyWeight       = "retrieval.recency_weight"
	KeySourceWeight        = "retrieval.source_weight"
	KeyFilenamePrefixes    = "retrieval.filename_prefixes"
	KeyEmbedProvider       = "embedding.provider"
	KeyEmbedModel          = "embedding.model"
	KeyEmbedBaseURL        = "embedding.base_url"
	KeyEmbedAPIKey         = "embedding.api_key"
	KeyVectorDir           = "storage.vector_dir"
	KeyRecordsDir          = "records.dir"
)

// defaultOllamaURL is used when Ollama is selected without a base URL.
const defaultOllamaURL = "http://localhost:11434"

// ChunkingUpdater receives chunking options at runtime.
type ChunkingUpdater interface {
	UpdateConfig(opts domain.ChunkOptions) int
}

// RetrievalUpdater receives retrieval parameters at runtime.
type RetrievalUpdater interface {
	UpdateConfig(settings domain.RetrievalSettings)
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	validate    *validator.Validate

	mu         sync.Mutex
	chunking   ChunkingUpdater
	retrievers []RetrievalUpdater
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		validate:    validator.New(),
	}
}

// SetChunking registers the component that receives chunking changes.
func (s *SettingsService) SetChunking(u ChunkingUpdater) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunking = u
}

// AddRetriever registers a component that receives retrieval changes.
func (s *SettingsService) AddRetriever(u RetrievalUpdater) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retrievers = append(s.retrievers, u)
}

// Get retrieves current application settings. Missing keys take their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunking: domain.ChunkSettings{
			ChunkSize:    s.getInt(KeyChunkSize, defaults.Chunking.ChunkSize),
			ChunkOverlap: s.getInt(KeyChunkOverlap, defaults.Chunking.ChunkOverlap),
			RowMode:      s.getBool(KeyRowMode, defaults.Chunking.RowMode),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:                s.getInt(KeyTopK, defaults.Retrieval.TopK),
			SimilarityThreshold: s.getFloat(KeySimilarityThreshold, defaults.Retrieval.SimilarityThreshold),
			SimilarityWeight:    s.getFloat(KeySimilarityWeight, defaults.Retrieval.SimilarityWeight),
			RecencyWeight:       s.getFloat(KeyRecencyWeight, defaults.Retrieval.RecencyWeight),
			SourceWeight:        s.getFloat(KeySourceWeight, defaults.Retrieval.SourceWeight),
			FilenamePrefixes:    s.configStore.GetStringSlice(KeyFilenamePrefixes),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(KeyEmbedProvider),
			Model:    s.configStore.GetString(KeyEmbedModel),
			BaseURL:  s.configStore.GetString(KeyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(KeyEmbedAPIKey),
		},
		Storage: domain.StorageSettings{
			VectorDir:  s.configStore.GetString(KeyVectorDir),
			RecordsDir: s.configStore.GetString(KeyRecordsDir),
		},
	}

	return settings, nil
}

// Save validates and persists application settings, then applies the
// chunking and retrieval parts to the registered components.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings are nil", domain.ErrInvalidInput)
	}
	if err := s.check(settings); err != nil {
		return err
	}

	values := []struct {
		key   string
		value any
	}{
		{KeyChunkSize, settings.Chunking.ChunkSize},
		{KeyChunkOverlap, settings.Chunking.ChunkOverlap},
		{KeyRowMode, settings.Chunking.RowMode},
		{KeyTopK, settings.Retrieval.TopK},
		{KeySimilarityThreshold, settings.Retrieval.SimilarityThreshold},
		{KeySimilarityWeight, settings.Retrieval.SimilarityWeight},
		{KeyRecencyWeight, settings.Retrieval.RecencyWeight},
		{KeySourceWeight, settings.Retrieval.SourceWeight},
		{KeyFilenamePrefixes, nonNil(settings.Retrieval.FilenamePrefixes)},
		{KeyEmbedProvider, settings.Embedding.Provider.String()},
		{KeyEmbedModel, settings.Embedding.Model},
		{KeyEmbedBaseURL, settings.Embedding.BaseURL},
		{KeyVectorDir, settings.Storage.VectorDir},
		{KeyRecordsDir, settings.Storage.RecordsDir},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(KeyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", KeyEmbedAPIKey, err)
		}
	}

	s.apply(settings)
	return nil
}

// apply pushes runtime-mutable settings to the registered components.
func (s *SettingsService) apply(settings *domain.AppSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.chunking != nil {
		n := s.chunking.UpdateConfig(settings.Chunking.Options())
		logger.Debug("chunking settings applied to %d processors", n)
	}
	for _, r := range s.retrievers {
		r.UpdateConfig(settings.Retrieval)
	}
}

// Set updates a single setting by its config key. The value is parsed
// according to the key and the resulting settings are validated before
// anything is written.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	switch key {
	case KeyChunkSize:
		err = parseInt(value, &settings.Chunking.ChunkSize)
	case KeyChunkOverlap:
		err = parseInt(value, &settings.Chunking.ChunkOverlap)
	case KeyRowMode:
		err = parseBool(value, &settings.Chunking.RowMode)
	case KeyTopK:
		err = parseInt(value, &settings.Retrieval.TopK)
	case KeySimilarityThreshold:
		err = parseFloat(value, &settings.Retrieval.SimilarityThreshold)
	case KeySimilarityWeight:
		err = parseFloat(value, &settings.Retrieval.SimilarityWeight)
	case KeyRecencyWeight:
		err = parseFloat(value, &settings.Retrieval.RecencyWeight)
	case KeySourceWeight:
		err = parseFloat(value, &settings.Retrieval.SourceWeight)
	case KeyFilenamePrefixes:
		settings.Retrieval.FilenamePrefixes = splitList(value)
	case KeyEmbedProvider:
		provider := domain.AIProvider(strings.ToLower(value))
		if value != "" && !provider.IsValid() {
			return fmt.Errorf("%w: unknown embedding provider %q", domain.ErrInvalidInput, value)
		}
		settings.Embedding.Provider = provider
	case KeyEmbedModel:
		settings.Embedding.Model = value
	case KeyEmbedBaseURL:
		settings.Embedding.BaseURL = value
	case KeyEmbedAPIKey:
		settings.Embedding.APIKey = value
	case KeyVectorDir:
		settings.Storage.VectorDir = value
	case KeyRecordsDir:
		settings.Storage.RecordsDir = value
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	return s.Save(settings)
}

// Keys returns every settable config key.
func Keys() []string {
	return []string{
		KeyChunkSize, KeyChunkOverlap, KeyRowMode,
		KeyTopK, KeySimilarityThreshold, KeySimilarityWeight,
		KeyRecencyWeight, KeySourceWeight, KeyFilenamePrefixes,
		KeyEmbedProvider, KeyEmbedModel, KeyEmbedBaseURL, KeyEmbedAPIKey,
		KeyVectorDir, KeyRecordsDir,
	}
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	// Validate API key if required
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrInvalidInput, provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	// Set base URL based on provider type
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	} else {
		// Cloud providers don't need a custom base URL
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.check(settings)
}

// check runs the struct validation rules.
func (s *SettingsService) check(settings *domain.AppSettings) error {
	err := s.validate.Struct(settings)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate settings: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
}

// describe renders a validation failure against its config key.
func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "AppSettings.")
	if key, ok := fieldKeys[field]; ok {
		field = key
	}
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s", field, fieldKeys["Chunking."+fe.Param()])
	default:
		return fmt.Sprintf("%s failed on '%s' tag", field, fe.Tag())
	}
}

var fieldKeys = map[string]string{
	"Chunking.ChunkSize":            KeyChunkSize,
	"Chunking.ChunkOverlap":         KeyChunkOverlap,
	"Retrieval.TopK":                KeyTopK,
	"Retrieval.SimilarityThreshold": KeySimilarityThreshold,
	"Retrieval.SimilarityWeight":    KeySimilarityWeight,
	"Retrieval.RecencyWeight":       KeyRecencyWeight,
	"Retrieval.SourceWeight":        KeySourceWeight,
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string) domain.AIProvider {
	provider := domain.AIProvider(strings.ToLower(s.configStore.GetString(key)))
	if !provider.IsValid() {
		return ""
	}
	return provider
}

func parseInt(value string, dst *int) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("not an integer: %q", value)
	}
	*dst = n
	return nil
}

func parseFloat(value string, dst *float64) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", value)
	}
	*dst = f
	return nil
}

func parseBool(value string, dst *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("not a boolean: %q", value)
	}
	*dst = b
	return nil
}

// splitList parses a comma-separated list, dropping empty items.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
