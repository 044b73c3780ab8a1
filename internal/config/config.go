package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Targets holds the number of QA items to generate per question type.
type Targets struct {
	OneHop       int
	TwoHop       int
	Intersection int
	Attribute    int
}

// Config controls the benchmark pipeline behavior.
type Config struct {
	RunID string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMModel      string
	EvalModel     string
	Temperature   float64
	MaxTokens     int

	PubMedBaseURL string
	PubMedMaxDocs int

	Targets           Targets
	SampleLimit       int
	IntermediateEvery int

	OutputDir string

	LogFormat string
	LogLevel  string

	MetricsEnabled bool
	MetricsPath    string

	ObjectStoreEndpoint  string
	ObjectStoreBucket    string
	ObjectStorePrefix    string
	ObjectStoreAccessKey string
	ObjectStoreSecretKey string
	ObjectStoreInsecure  bool
}

// Load reads environment variables (including a .env file when present)
// into Config.
func Load() *Config {
	// Missing .env is fine; the environment alone may be complete.
	_ = godotenv.Load()

	outputDir := envOrDefault("KGBENCH_OUTPUT_DIR", "outputs")

	cfg := &Config{
		RunID: envOrDefault("KGBENCH_RUN_ID", uuid.NewString()),

		Neo4jURI:      envOrDefault("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:     envOrDefault("NEO4J_USER", "neo4j"),
		Neo4jPassword: envOrDefault("NEO4J_PASSWORD", "password"),
		Neo4jDatabase: envOrDefault("NEO4J_DATABASE", "neo4j"),

		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", ""),
		LLMModel:      envOrDefault("LLM_MODEL", "gpt-3.5-turbo"),
		EvalModel:     envOrDefault("EVAL_MODEL", "gpt-4"),
		Temperature:   envOrDefaultFloat("TEMPERATURE", 0.3),
		MaxTokens:     envOrDefaultInt("MAX_TOKENS", 1000),

		PubMedBaseURL: envOrDefault("PUBMED_BASE_URL", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"),
		PubMedMaxDocs: envOrDefaultInt("PUBMED_MAX_DOCS", 5),

		Targets: Targets{
			OneHop:       envOrDefaultInt("TARGET_ONEHOP", 500),
			TwoHop:       envOrDefaultInt("TARGET_TWOHOP", 200),
			Intersection: envOrDefaultInt("TARGET_INTERSECTION", 100),
			Attribute:    envOrDefaultInt("TARGET_ATTRIBUTE", 200),
		},
		SampleLimit:       envOrDefaultInt("KGBENCH_SAMPLE_LIMIT", 1000),
		IntermediateEvery: envOrDefaultInt("KGBENCH_INTERMEDIATE_EVERY", 50),

		OutputDir: outputDir,

		LogFormat: envOrDefault("KGBENCH_LOG_FORMAT", "json"),
		LogLevel:  envOrDefault("KGBENCH_LOG_LEVEL", "info"),

		MetricsEnabled: envOrDefaultBool("KGBENCH_METRICS", true),
		MetricsPath:    envOrDefault("KGBENCH_METRICS_PATH", filepath.Join(outputDir, "metrics.prom")),

		ObjectStoreEndpoint:  envOrDefault("KGBENCH_OBJECTSTORE_ENDPOINT", ""),
		ObjectStoreBucket:    envOrDefault("KGBENCH_OBJECTSTORE_BUCKET", ""),
		ObjectStorePrefix:    envOrDefault("KGBENCH_OBJECTSTORE_PREFIX", ""),
		ObjectStoreAccessKey: envOrDefault("KGBENCH_OBJECTSTORE_ACCESS_KEY", ""),
		ObjectStoreSecretKey: envOrDefault("KGBENCH_OBJECTSTORE_SECRET_KEY", ""),
		ObjectStoreInsecure:  envOrDefaultBool("KGBENCH_OBJECTSTORE_INSECURE", false),
	}

	return cfg
}

// ObjectStoreEnabled reports whether artifact upload is configured.
func (c *Config) ObjectStoreEnabled() bool {
	return c.ObjectStoreEndpoint != "" && c.ObjectStoreBucket != ""
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		return fallback
	}
}
