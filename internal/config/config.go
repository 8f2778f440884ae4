package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Tutor     TutorConfig
	JWTSecret string
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider        string // "ollama" or "huggingface"
	LLMBaseURL         string
	LLMAPIKey          string
	FastModel          string
	AdvancedModel      string
	FastInputRate      float64 // per 1K tokens
	FastOutputRate     float64
	AdvancedInputRate  float64
	AdvancedOutputRate float64
	Timeout            time.Duration
	MaxRetries         int
	EmbeddingBaseURL   string
	EmbeddingModel     string
}

type TutorConfig struct {
	RetrievalTimeout      time.Duration
	RetrievalTopK         int
	RetrievalMinRelevance float64
	CacheTTL              time.Duration
	CacheAsync            bool
	SessionIdle           time.Duration
	SessionHistoryCap     int
	Complexity            ComplexityConfig
}

type ComplexityConfig struct {
	Threshold     float64
	MediumWords   int
	LongWords     int
	MediumWeight  float64
	LongWeight    float64
	KeywordWeight float64
	DepthWeight   float64
	DepthTurns    int
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMBaseURL:         getEnv("LLM_BASE_URL", "http://localhost:11434"),
			LLMAPIKey:          getEnv("LLM_API_KEY", ""),
			FastModel:          getEnv("LLM_FAST_MODEL", "llama3"),
			AdvancedModel:      getEnv("LLM_ADVANCED_MODEL", "llama3:70b"),
			FastInputRate:      getEnvAsFloat("LLM_FAST_INPUT_RATE", 0.0005),
			FastOutputRate:     getEnvAsFloat("LLM_FAST_OUTPUT_RATE", 0.0015),
			AdvancedInputRate:  getEnvAsFloat("LLM_ADVANCED_INPUT_RATE", 0.01),
			AdvancedOutputRate: getEnvAsFloat("LLM_ADVANCED_OUTPUT_RATE", 0.03),
			Timeout:            time.Duration(getEnvAsInt("LLM_TIMEOUT_SECONDS", 20)) * time.Second,
			MaxRetries:         getEnvAsInt("LLM_MAX_RETRIES", 2),
			EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "http://localhost:11434"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Tutor: TutorConfig{
			RetrievalTimeout:      time.Duration(getEnvAsInt("RETRIEVAL_TIMEOUT_SECONDS", 3)) * time.Second,
			RetrievalTopK:         getEnvAsInt("RETRIEVAL_TOP_K", 10),
			RetrievalMinRelevance: getEnvAsFloat("RETRIEVAL_MIN_RELEVANCE", 0),
			CacheTTL:              time.Duration(getEnvAsInt("CACHE_TTL_HOURS", 24)) * time.Hour,
			CacheAsync:            getEnvAsBool("CACHE_ASYNC", true),
			SessionIdle:           time.Duration(getEnvAsInt("SESSION_IDLE_MINUTES", 30)) * time.Minute,
			SessionHistoryCap:     getEnvAsInt("SESSION_HISTORY_CAP", 50),
			Complexity: ComplexityConfig{
				Threshold:     getEnvAsFloat("COMPLEXITY_THRESHOLD", 0.5),
				MediumWords:   getEnvAsInt("COMPLEXITY_MEDIUM_WORDS", 20),
				LongWords:     getEnvAsInt("COMPLEXITY_LONG_WORDS", 50),
				MediumWeight:  getEnvAsFloat("COMPLEXITY_MEDIUM_WEIGHT", 0.1),
				LongWeight:    getEnvAsFloat("COMPLEXITY_LONG_WEIGHT", 0.3),
				KeywordWeight: getEnvAsFloat("COMPLEXITY_KEYWORD_WEIGHT", 0.3),
				DepthWeight:   getEnvAsFloat("COMPLEXITY_DEPTH_WEIGHT", 0.2),
				DepthTurns:    getEnvAsInt("COMPLEXITY_DEPTH_TURNS", 5),
			},
		},
		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
