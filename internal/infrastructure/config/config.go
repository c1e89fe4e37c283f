package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 儲存後端
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	Extract     ExtractConfig    `mapstructure:"extract"`
	Ingest      IngestConfig     `mapstructure:"ingest"`
	Queue       QueueConfig      `mapstructure:"queue"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Postgres    PostgresConfig   `mapstructure:"postgres"`
	Kafka       KafkaConfig      `mapstructure:"kafka"`
	Reddit      RedditConfig     `mapstructure:"reddit"`
	Search      SearchConfig     `mapstructure:"search"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// ExtractConfig 擷取上限
type ExtractConfig struct {
	MaxIngredients  int `mapstructure:"max_ingredients"`
	MaxInstructions int `mapstructure:"max_instructions"`
	LenientMax      int `mapstructure:"lenient_max"`
}

// IngestConfig 寫入前檢查與儲存後端
type IngestConfig struct {
	MinIngredients int    `mapstructure:"min_ingredients"`
	MaxItemLength  int    `mapstructure:"max_item_length"`
	Store          string `mapstructure:"store"`
	IndexOnSave    bool   `mapstructure:"index_on_save"`
}

// QueueConfig 批次處理隊列設定
type QueueConfig struct {
	Workers      int           `mapstructure:"workers"`
	MaxSize      int           `mapstructure:"max_size"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
	BaseURL   string        `mapstructure:"base_url"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// PostgresConfig Postgres 配置
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// KafkaConfig Kafka 消費者配置
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

// RedditConfig Reddit 來源配置
type RedditConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Subreddit string        `mapstructure:"subreddit"`
	Limit     int           `mapstructure:"limit"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SearchConfig 搜尋索引配置
type SearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定；configFile 為空時搜尋 ./config.yaml 與 ./configs/config.yaml
func LoadConfig(configFile string) (*Config, error) {
	// .env 不存在不算錯誤
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"openrouter.api_key":    "OPENROUTER_API_KEY",
		"openrouter.model":      "OPENROUTER_MODEL",
		"openrouter.max_tokens": "MODEL_MAX_TOKENS",
		"postgres.dsn":          "DATABASE_URL",
		"redis.addr":            "REDIS_ADDR",
		"redis.password":        "REDIS_PASSWORD",
		"kafka.brokers":         "KAFKA_BROKERS",
		"kafka.topic":           "KAFKA_TOPIC_RECIPES",
		"search.addresses":      "OPENSEARCH_ADDRESSES",
		"search.username":       "OPENSEARCH_USERNAME",
		"search.password":       "OPENSEARCH_PASSWORD",
		"rate_limit.enabled":    "RATE_LIMIT_ENABLED",
		"rate_limit.requests":   "RATE_LIMIT_REQUESTS",
		"rate_limit.window":     "RATE_LIMIT_WINDOW",
		"dedup_window":          "DEDUP_WINDOW",
		"log_level":             "LOG_LEVEL",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-extractor")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// 擷取設定
	v.SetDefault("extract.max_ingredients", 30)
	v.SetDefault("extract.max_instructions", 30)
	v.SetDefault("extract.lenient_max", 20)

	// 寫入設定
	v.SetDefault("ingest.min_ingredients", 2)
	v.SetDefault("ingest.max_item_length", 500)
	v.SetDefault("ingest.store", StoreMemory)
	v.SetDefault("ingest.index_on_save", false)

	// 隊列設定
	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 100)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.retry_backoff", "500ms")

	// OpenRouter 設定
	v.SetDefault("openrouter.enabled", false)
	v.SetDefault("openrouter.model", "qwen/qwen2.5-72b-instruct:free")
	v.SetDefault("openrouter.max_tokens", 2000)
	v.SetDefault("openrouter.timeout", "60s")
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")

	// Redis 設定
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "recipe:")

	// Postgres 設定
	v.SetDefault("postgres.max_conns", 10)

	// Kafka 設定
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "reddit-recipes")
	v.SetDefault("kafka.group_id", "recipe-extractor")

	// Reddit 設定
	v.SetDefault("reddit.base_url", "https://www.reddit.com")
	v.SetDefault("reddit.user_agent", "recipe-extractor/1.0")
	v.SetDefault("reddit.subreddit", "recipes")
	v.SetDefault("reddit.limit", 25)
	v.SetDefault("reddit.timeout", "30s")

	// 搜尋設定
	v.SetDefault("search.enabled", false)
	v.SetDefault("search.addresses", []string{"http://localhost:9200"})
	v.SetDefault("search.index", "recipes")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if config.Ingest.MinIngredients < 1 {
		return fmt.Errorf("invalid ingest min ingredients")
	}
	switch config.Ingest.Store {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if config.Postgres.DSN == "" {
			return fmt.Errorf("postgres dsn is required when ingest store is postgres")
		}
	default:
		return fmt.Errorf("unknown ingest store %q", config.Ingest.Store)
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}
	if config.Queue.MaxRetries < 0 {
		return fmt.Errorf("invalid queue max retries")
	}

	if config.OpenRouter.Enabled && config.OpenRouter.APIKey == "" {
		return fmt.Errorf("openrouter api key is required when openrouter is enabled")
	}
	if config.Search.Enabled && len(config.Search.Addresses) == 0 {
		return fmt.Errorf("search addresses are required when search is enabled")
	}

	return nil
}
