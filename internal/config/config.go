package config

import (
	"os"
	"strconv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Chat history (Redis)
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Report metadata (Postgres)
	DatabaseURL string

	// AWS (escalation records in DynamoDB, report blobs in S3)
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
	EscalationsTable    string
	ReportsBucket       string

	// Chat completions (Groq's OpenAI-compatible endpoint)
	GroqAPIKey       string
	GroqBaseURL      string
	ChatModelID      string
	ChatMaxTokens    int
	ChatTemperature  float64
	EmbeddingModelID string

	// Report synthesis (Gemini)
	GeminiAPIKey  string
	GeminiModelID string

	// Knowledge base / vector index
	KnowledgeDir  string
	IndexPath     string
	RetrievalTopK int

	// Conversation windows
	ChatWindowSize   int
	ReportWindowSize int

	// HTTP surface
	CORSAllowedOrigins  string
	ChatRateLimitPerSec float64
	ChatRateLimitBurst  int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8020"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		EscalationsTable:    getEnv("ESCALATIONS_TABLE", "escalations"),
		ReportsBucket:       getEnv("REPORTS_BUCKET", ""),

		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		GroqBaseURL:      getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		ChatModelID:      getEnv("CHAT_MODEL_ID", "llama3-8b-8192"),
		ChatMaxTokens:    getEnvAsInt("CHAT_MAX_TOKENS", 75),
		ChatTemperature:  getEnvAsFloat("CHAT_TEMPERATURE", 0.2),
		EmbeddingModelID: getEnv("EMBEDDING_MODEL_ID", "text-embedding-3-small"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModelID: getEnv("GEMINI_MODEL_ID", "gemini-1.5-pro"),

		KnowledgeDir:  getEnv("KNOWLEDGE_DIR", "data"),
		IndexPath:     getEnv("INDEX_PATH", "knowledge_index.json"),
		RetrievalTopK: getEnvAsInt("RETRIEVAL_TOP_K", 3),

		ChatWindowSize:   getEnvAsInt("CHAT_WINDOW_SIZE", 3),
		ReportWindowSize: getEnvAsInt("REPORT_WINDOW_SIZE", 10),

		CORSAllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", ""),
		ChatRateLimitPerSec: getEnvAsFloat("CHAT_RATE_LIMIT_PER_SEC", 0),
		ChatRateLimitBurst:  getEnvAsInt("CHAT_RATE_LIMIT_BURST", 5),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}
