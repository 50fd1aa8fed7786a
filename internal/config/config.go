package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Search   SearchConfig
	Gemini   GeminiConfig
	Qdrant   QdrantConfig
	Indexing IndexingConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// StorageConfig points at an S3-compatible blob store. When Endpoint or
// Bucket is blank the blob client is never constructed and every storage
// operation returns a config error.
type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// SearchConfig describes the managed search service. FallbackIndex is the
// documented default used when index discovery finds nothing or fails.
type SearchConfig struct {
	Endpoint      string
	APIKey        string
	APIVersion    string
	IndexPrefix   string
	FallbackIndex string
}

type GeminiConfig struct {
	APIKey          string
	ChatModel       string
	TranscribeModel string
	EmbedModel      string
	MaxRetries      int
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// IndexingConfig holds the readiness-poll knobs. The fast timeout serves the
// demo path, the full timeout the reliability path; the poller itself is
// timeout-agnostic.
type IndexingConfig struct {
	PollInterval time.Duration
	FastTimeout  time.Duration
	FullTimeout  time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "interview_analyzer"),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			Region:    getEnv("STORAGE_REGION", "us-east-1"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("STORAGE_BUCKET", ""),
		},
		Search: SearchConfig{
			Endpoint:      getEnv("SEARCH_ENDPOINT", ""),
			APIKey:        getEnv("SEARCH_API_KEY", ""),
			APIVersion:    getEnv("SEARCH_API_VERSION", "2024-07-01"),
			IndexPrefix:   getEnv("SEARCH_INDEX_PREFIX", "rag-"),
			FallbackIndex: getEnv("SEARCH_FALLBACK_INDEX", "rag-1751935906958"),
		},
		Gemini: GeminiConfig{
			APIKey:          getEnv("GEMINI_API_KEY", ""),
			ChatModel:       getEnv("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
			TranscribeModel: getEnv("GEMINI_TRANSCRIBE_MODEL", "gemini-2.5-flash"),
			EmbedModel:      getEnv("GEMINI_EMBED_MODEL", "text-embedding-004"),
			MaxRetries:      getEnvAsInt("GEMINI_MAX_RETRIES", 3),
		},
		Qdrant: QdrantConfig{
			URL:        getEnv("QDRANT_URL", "http://localhost:6333"),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			Collection: getEnv("QDRANT_COLLECTION", "interview_analysis_results"),
		},
		Indexing: IndexingConfig{
			PollInterval: getEnvAsDuration("INDEX_POLL_INTERVAL", "1s"),
			FastTimeout:  getEnvAsDuration("INDEX_POLL_TIMEOUT_FAST", "15s"),
			FullTimeout:  getEnvAsDuration("INDEX_POLL_TIMEOUT_FULL", "60s"),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
