package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/motif/internal/catalog"
	"github.com/mesh-intelligence/motif/internal/engine"
	"github.com/mesh-intelligence/motif/internal/paths"
	"github.com/mesh-intelligence/motif/pkg/types"
)

// Config keys in config.yaml. Each also reads MOTIF_<KEY> from the
// environment.
const (
	cfgKeyBackend           = "backend"
	cfgKeyDataDir           = "data_dir"
	cfgKeyEnv               = "env"
	cfgKeyLogLevel          = "log_level"
	cfgKeyVectorBackend     = "vector_backend"
	cfgKeyEmbedder          = "embedder"
	cfgKeyDimensions        = "embedding_dimensions"
	cfgKeyOpenAIModel       = "openai_model"
	cfgKeyOpenAIKey         = "openai_api_key"
	cfgKeyOpenAIBaseURL     = "openai_base_url"
	cfgKeyMinSimilarity     = "min_similarity"
	cfgKeyTrainingThreshold = "training_threshold"
	cfgKeyPoolSize          = "pool_size"
	cfgKeyCatalog           = "catalog"
)

// envOpenAIKey is the conventional variable for the remote embedder key.
const envOpenAIKey = "OPENAI_API_KEY"

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# motif configuration

# Graph store: sqlite or memory
backend: sqlite

# Data directory (optional; overridable by --data-dir)
# data_dir:

# Static catalog loaded when the store is empty or unreachable
# catalog:

env: production
log_level: warn

# Vector backend: auto, ann or bruteforce
vector_backend: auto

# Embedder: hash (local) or openai (reads OPENAI_API_KEY)
embedder: hash
embedding_dimensions: 256
min_similarity: 0.2

# Explicit feedback count that marks fine-tuning as ready
training_threshold: 500
`

// loadConfig reads config.yaml from configDir, creating the directory and
// a default file on first run. A .env file in configDir or the working
// directory is loaded into the environment first; existing variables win.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(paths.ConfigFile(configDir)); err != nil {
		return nil, err
	}
	for _, f := range []string{paths.EnvFile(configDir), paths.EnvFileName} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyEnv, "production")
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyVectorBackend, types.VectorAuto)
	v.SetDefault(cfgKeyEmbedder, types.EmbedderHash)
	v.SetDefault(cfgKeyDimensions, types.DefaultEmbeddingDimensions)
	v.SetDefault(cfgKeyOpenAIModel, types.DefaultOpenAIModel)
	v.SetDefault(cfgKeyMinSimilarity, types.DefaultMinSimilarity)
	v.SetDefault(cfgKeyTrainingThreshold, types.DefaultTrainingThreshold)

	v.SetEnvPrefix("MOTIF")
	v.AutomaticEnv()
	if err := v.BindEnv(cfgKeyOpenAIKey, "MOTIF_OPENAI_API_KEY", envOpenAIKey); err != nil {
		return nil, fmt.Errorf("binding env: %w", err)
	}

	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// ensureDefaultConfigFile writes defaultConfigYAML when path is missing.
func ensureDefaultConfigFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// config builds the engine configuration from viper and the data-dir flag.
func (a *app) config() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolving data dir: %w", err)
	}
	cfg := types.Config{
		Backend:             a.v.GetString(cfgKeyBackend),
		DataDir:             dataDir,
		Env:                 a.v.GetString(cfgKeyEnv),
		LogLevel:            a.v.GetString(cfgKeyLogLevel),
		VectorBackend:       a.v.GetString(cfgKeyVectorBackend),
		Embedder:            a.v.GetString(cfgKeyEmbedder),
		EmbeddingDimensions: a.v.GetInt(cfgKeyDimensions),
		OpenAIModel:         a.v.GetString(cfgKeyOpenAIModel),
		OpenAIAPIKey:        a.v.GetString(cfgKeyOpenAIKey),
		MinSimilarity:       a.v.GetFloat64(cfgKeyMinSimilarity),
		TrainingThreshold:   a.v.GetInt(cfgKeyTrainingThreshold),
		PoolSize:            a.v.GetInt(cfgKeyPoolSize),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("%w: %v", errUsage, err)
	}
	return cfg, nil
}

// openEngine opens the engine and loads cat into an empty store. A nil cat
// selects the configured catalog, if any; the memory backend requires one.
func (a *app) openEngine(ctx context.Context, cat *catalog.Catalog) (*engine.Engine, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	if path := a.v.GetString(cfgKeyCatalog); cat == nil && path != "" {
		if cat, err = catalog.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return engine.Open(ctx, cfg, cat,
		engine.WithLogger(a.logger),
		engine.WithOpenAIBaseURL(a.v.GetString(cfgKeyOpenAIBaseURL)))
}
