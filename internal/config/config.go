package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Log        LogConfig
	HTTP       HTTPConfig
	HTTPClient HTTPClientConfig
	Gemini     GeminiConfig
	Endpoint   EndpointConfig
	Studio     StudioConfig
	History    HistoryConfig
	Telegram   TelegramConfig
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

type HTTPConfig struct {
	Addr           string   `env:"HTTP_ADDR" env-default:":8080"`
	EndpointAddr   string   `env:"ENDPOINT_ADDR" env-default:":8090"`
	AllowedOrigins []string `env:"HTTP_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`
	MaxUploadBytes int64    `env:"HTTP_MAX_UPLOAD_BYTES" env-default:"26214400"`
}

type HTTPClientConfig struct {
	PreferIPv4 bool          `env:"PREFER_IPV4" env-default:"true"`
	Timeout    time.Duration `env:"HTTP_TIMEOUT" env-default:"180s"`
}

type GeminiConfig struct {
	APIKey     string `env:"GEMINI_API_KEY"`
	BaseURL    string `env:"GEMINI_BASE_URL" env-default:"https://generativelanguage.googleapis.com"`
	APIVersion string `env:"GEMINI_API_VERSION" env-default:"v1beta"`
	Model      string `env:"GEMINI_MODEL" env-default:"gemini-3-pro-image-preview"`
}

type EndpointConfig struct {
	URL          string        `env:"GENERATION_ENDPOINT_URL" env-default:"http://localhost:8090/v1/generate"`
	Timeout      time.Duration `env:"GENERATION_TIMEOUT" env-default:"240s"`
	MaxBodyBytes int64         `env:"GENERATION_MAX_BODY_BYTES" env-default:"20971520"`
}

type StudioConfig struct {
	DefaultTier   string `env:"STUDIO_DEFAULT_TIER" env-default:"free"`
	WatermarkText string `env:"STUDIO_WATERMARK_TEXT" env-default:"ArchViz Studio"`
	MaxDimension  int    `env:"STUDIO_MAX_DIMENSION" env-default:"2048"`
	JPEGQuality   int    `env:"STUDIO_JPEG_QUALITY" env-default:"85"`
}

type HistoryConfig struct {
	Backend       string        `env:"HISTORY_BACKEND" env-default:"memory"`
	RedisAddr     string        `env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
	RedisPrefix   string        `env:"HISTORY_REDIS_PREFIX" env-default:"archviz:history"`
	TTL           time.Duration `env:"HISTORY_TTL" env-default:"720h"`
	MaxRecords    int           `env:"HISTORY_MAX_RECORDS" env-default:"50"`
	QueueSize     int           `env:"HISTORY_QUEUE_SIZE" env-default:"64"`
	WriteTimeout  time.Duration `env:"HISTORY_WRITE_TIMEOUT" env-default:"10s"`
}

type TelegramConfig struct {
	Token              string        `env:"TELEGRAM_BOT_TOKEN"`
	Debug              bool          `env:"TELEGRAM_DEBUG" env-default:"false"`
	MaxConcurrent      int           `env:"MAX_CONCURRENT" env-default:"4"`
	MediaGroupDebounce time.Duration `env:"MEDIA_GROUP_DEBOUNCE" env-default:"1200ms"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" env-default:"300s"`
	HistoryPageSize    int           `env:"TELEGRAM_HISTORY_PAGE_SIZE" env-default:"5"`
}

// Load reads .env (if present) and the environment, then clamps values that
// would leave a component unusable.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gemini.BaseURL), "/")
	c.Gemini.APIVersion = strings.Trim(strings.TrimSpace(c.Gemini.APIVersion), "/")
	c.History.Backend = strings.ToLower(strings.TrimSpace(c.History.Backend))

	if c.HTTPClient.Timeout <= 0 {
		c.HTTPClient.Timeout = 180 * time.Second
	}
	if c.HTTP.MaxUploadBytes <= 0 {
		c.HTTP.MaxUploadBytes = 25 << 20
	}
	if c.Endpoint.Timeout <= 0 {
		c.Endpoint.Timeout = 240 * time.Second
	}
	if c.Endpoint.MaxBodyBytes <= 0 {
		c.Endpoint.MaxBodyBytes = 20 << 20
	}
	if c.Studio.MaxDimension < 256 {
		c.Studio.MaxDimension = 256
	}
	if c.Studio.JPEGQuality < 1 || c.Studio.JPEGQuality > 100 {
		c.Studio.JPEGQuality = 85
	}
	if c.History.Backend != "redis" {
		c.History.Backend = "memory"
	}
	if c.History.MaxRecords < 1 {
		c.History.MaxRecords = 1
	}
	if c.History.QueueSize < 1 {
		c.History.QueueSize = 1
	}
	if c.History.WriteTimeout <= 0 {
		c.History.WriteTimeout = 10 * time.Second
	}
	if c.Telegram.MaxConcurrent < 1 {
		c.Telegram.MaxConcurrent = 1
	}
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = 300 * time.Second
	}
	if c.Telegram.MediaGroupDebounce <= 0 {
		c.Telegram.MediaGroupDebounce = 1200 * time.Millisecond
	}
	if c.Telegram.HistoryPageSize < 1 {
		c.Telegram.HistoryPageSize = 5
	}
}

// RequireGemini reports a missing upstream key; only the endpoint needs it.
func (c Config) RequireGemini() error {
	if strings.TrimSpace(c.Gemini.APIKey) == "" {
		return errors.New("GEMINI_API_KEY is required")
	}
	return nil
}

func (c Config) RequireTelegram() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is required")
	}
	return nil
}
