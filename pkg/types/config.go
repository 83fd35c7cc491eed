package types

import "errors"

// Config holds backend selection and tuning for an engine.
type Config struct {
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// Env selects the log encoder: "production" or "development".
	Env      string `json:"env" yaml:"env" mapstructure:"env"`
	LogLevel string `json:"log_level" yaml:"log_level" mapstructure:"log_level"`

	// VectorBackend is auto, ann, or bruteforce. Chosen once at start.
	VectorBackend string `json:"vector_backend" yaml:"vector_backend" mapstructure:"vector_backend"`

	// Embedder is hash (local, default) or openai.
	Embedder            string  `json:"embedder" yaml:"embedder" mapstructure:"embedder"`
	EmbeddingDimensions int     `json:"embedding_dimensions" yaml:"embedding_dimensions" mapstructure:"embedding_dimensions"`
	OpenAIModel         string  `json:"openai_model" yaml:"openai_model" mapstructure:"openai_model"`
	OpenAIAPIKey        string  `json:"-" yaml:"-" mapstructure:"openai_api_key"`
	MinSimilarity       float64 `json:"min_similarity" yaml:"min_similarity" mapstructure:"min_similarity"`

	// TrainingThreshold is the explicit-feedback count that marks the
	// external fine-tuning pipeline as ready.
	TrainingThreshold int `json:"training_threshold" yaml:"training_threshold" mapstructure:"training_threshold"`

	// PoolSize bounds concurrent embedding batches.
	PoolSize int `json:"pool_size" yaml:"pool_size" mapstructure:"pool_size"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Vector backend names.
const (
	VectorAuto       = "auto"
	VectorANN        = "ann"
	VectorBruteForce = "bruteforce"
)

// Embedder names.
const (
	EmbedderHash   = "hash"
	EmbedderOpenAI = "openai"
)

// Defaults applied by WithDefaults.
const (
	DefaultEmbeddingDimensions = 256
	DefaultMinSimilarity       = 0.2
	DefaultTrainingThreshold   = 500
	DefaultOpenAIModel         = "text-embedding-3-small"
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrVectorBackendUnknown = errors.New("unknown vector backend")
	ErrEmbedderUnknown      = errors.New("unknown embedder")
	ErrDimensionsInvalid    = errors.New("embedding dimensions must be positive")
	ErrSimilarityInvalid    = errors.New("min similarity must be within [-1, 1]")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
}

var knownVectorBackends = map[string]bool{
	"":               true,
	VectorAuto:       true,
	VectorANN:        true,
	VectorBruteForce: true,
}

var knownEmbedders = map[string]bool{
	"":             true,
	EmbedderHash:   true,
	EmbedderOpenAI: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownVectorBackends[c.VectorBackend] {
		return ErrVectorBackendUnknown
	}
	if !knownEmbedders[c.Embedder] {
		return ErrEmbedderUnknown
	}
	if c.EmbeddingDimensions < 0 {
		return ErrDimensionsInvalid
	}
	if c.MinSimilarity < -1 || c.MinSimilarity > 1 {
		return ErrSimilarityInvalid
	}
	return nil
}

// WithDefaults fills unset tuning fields.
func (c Config) WithDefaults() Config {
	if c.VectorBackend == "" {
		c.VectorBackend = VectorAuto
	}
	if c.Embedder == "" {
		c.Embedder = EmbedderHash
	}
	if c.EmbeddingDimensions == 0 {
		c.EmbeddingDimensions = DefaultEmbeddingDimensions
	}
	if c.MinSimilarity == 0 {
		c.MinSimilarity = DefaultMinSimilarity
	}
	if c.TrainingThreshold == 0 {
		c.TrainingThreshold = DefaultTrainingThreshold
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = DefaultOpenAIModel
	}
	return c
}
