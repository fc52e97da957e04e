package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	BackendDisk     = "disk"
	BackendRedis    = "redis"
	BackendSupabase = "supabase"
	BackendMinio    = "minio"
)

type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Inference InferenceConfig
	Storage   StorageConfig
	Supabase  SupabaseConfig
	Redis     RedisConfig
	Minio     MinioConfig
	RabbitMQ  RabbitMQConfig
}

type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Mode           string
	AllowedOrigins []string
}

type LogConfig struct {
	Level string
}

type InferenceConfig struct {
	Provider      string
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	Timeout       time.Duration
}

// Model returns the model identifier of the selected provider.
func (c InferenceConfig) Model() string {
	if c.Provider == ProviderOpenAI {
		return c.OpenAIModel
	}
	return c.GeminiModel
}

type StorageConfig struct {
	Backend      string
	MaxFileSize  int64
	MaxDimension int
	AllowedTypes []string
	UploadPath   string
	StagingTTL   time.Duration
}

type SupabaseConfig struct {
	URL    string
	KEY    string
	BUCKET string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type RabbitMQConfig struct {
	URL     string
	Queue   string
	Workers int
}

// Enabled reports whether the queue worker should be started.
func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "5000"),
			ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDuration("WRITE_TIMEOUT", 90*time.Second),
			Mode:           getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Inference: InferenceConfig{
			Provider:      strings.ToLower(getEnv("INFERENCE_PROVIDER", ProviderGemini)),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
			GeminiBaseURL: getEnv("GEMINI_BASE_URL", ""),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			Timeout:       getDuration("INFERENCE_TIMEOUT", 60*time.Second),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(getEnv("STAGING_BACKEND", BackendDisk)),
			MaxFileSize:  getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024), // 10MB
			MaxDimension: getEnvAsInt("MAX_IMAGE_DIMENSION", 2048),
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
			UploadPath:   getEnv("UPLOAD_PATH", "./uploads"),
			StagingTTL:   getDuration("STAGING_TTL", 10*time.Minute),
		},
		Supabase: SupabaseConfig{
			URL:    getEnv("SUPABASE_URL", ""),
			KEY:    getEnv("SUPABASE_KEY", ""),
			BUCKET: getEnv("SUPABASE_BUCKET", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "critique-staging"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", true),
		},
		RabbitMQ: RabbitMQConfig{
			URL:     getEnv("RABBITMQ_URL", ""),
			Queue:   getEnv("RABBITMQ_QUEUE", "critique_requests"),
			Workers: getEnvAsInt("WORKER_COUNT", 2),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Inference.Provider {
	case ProviderGemini:
		if c.Inference.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %q", ProviderGemini)
		}
	case ProviderOpenAI:
		if c.Inference.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("unknown INFERENCE_PROVIDER %q", c.Inference.Provider)
	}

	switch c.Storage.Backend {
	case BackendDisk, BackendRedis:
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.BUCKET == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_BUCKET are required for staging backend %q", BackendSupabase)
		}
	case BackendMinio:
		if c.Minio.Endpoint == "" {
			return fmt.Errorf("MINIO_ENDPOINT is required for staging backend %q", BackendMinio)
		}
	default:
		return fmt.Errorf("unknown STAGING_BACKEND %q", c.Storage.Backend)
	}

	if c.Inference.Timeout <= 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT must be positive")
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsList(key string, defaultVal []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultVal
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultVal
	}
	return items
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}
