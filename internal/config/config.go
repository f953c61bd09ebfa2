package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		CacheDB  int    `yaml:"cache_db"`
		QueueDB  int    `yaml:"queue_db"`
		CacheTTL int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Minio struct {
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Bucket    string `yaml:"bucket"`
		UseSSL    bool   `yaml:"use_ssl"`
		PublicURL string `yaml:"public_url"` // base for public object links
	} `yaml:"minio"`

	Upload struct {
		MaxSizeMB     int `yaml:"max_size_mb"`
		JPEGQuality   int `yaml:"jpeg_quality"`
		WebPQuality   int `yaml:"webp_quality"`
		RenderBudget  int `yaml:"render_budget_seconds"`
		TaskTimeout   int `yaml:"task_timeout_seconds"`
		TaskRetries   int `yaml:"task_retries"`
		UploadRetries int `yaml:"upload_retries"`
	} `yaml:"upload"`

	JWT struct {
		Secret     string `yaml:"secret"`
		AccessTTL  int    `yaml:"access_ttl_minutes"`
		RefreshTTL int    `yaml:"refresh_ttl_days"`
	} `yaml:"jwt"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
		AdminEmail   string `yaml:"admin_email"`
		Enabled      bool   `yaml:"enabled"`
	} `yaml:"email"`

	Worker struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"worker"`

	CORS struct {
		// AllowedOrigins empty means allow any origin; production configs
		// should pin the admin frontend host here.
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

// LoadConfig reads config.yaml (CONFIG_PATH overrides the location). When
// DATABASE_URL is set, the file is skipped and everything comes from the
// environment; integration tests rely on that path.
func LoadConfig() (*Config, error) {
	var cfg Config

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.DSN = dbURL
		cfg.Server.Env = os.Getenv("SERVER_ENV")
		cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
		cfg.Redis.Addr = envOr("REDIS_ADDR", "localhost:6379")
		cfg.Minio.Endpoint = envOr("MINIO_ENDPOINT", "localhost:9000")
		cfg.Minio.AccessKey = envOr("MINIO_ACCESS_KEY", "minioadmin")
		cfg.Minio.SecretKey = envOr("MINIO_SECRET_KEY", "minioadmin")
		cfg.Minio.Bucket = envOr("MINIO_BUCKET", "apartment-photos")
		cfg.JWT.Secret = envOr("JWT_SECRET", "test-secret")
		cfg.Admin.Email = os.Getenv("ADMIN_EMAIL")
		cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
		if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
			cfg.CORS.AllowedOrigins = strings.Split(origins, ",")
		}
		cfg.applyDefaults()
		return &cfg, nil
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("open config %s: %w", configPath, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configPath, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = 300
	}
	if c.Upload.MaxSizeMB == 0 {
		c.Upload.MaxSizeMB = 10
	}
	if c.Upload.JPEGQuality == 0 {
		c.Upload.JPEGQuality = 85
	}
	if c.Upload.WebPQuality == 0 {
		c.Upload.WebPQuality = 80
	}
	if c.Upload.RenderBudget == 0 {
		c.Upload.RenderBudget = 30
	}
	if c.Upload.TaskTimeout == 0 {
		c.Upload.TaskTimeout = 300
	}
	if c.Upload.TaskRetries == 0 {
		c.Upload.TaskRetries = 3
	}
	if c.Upload.UploadRetries == 0 {
		c.Upload.UploadRetries = 3
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 30
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 7
	}
	if c.Worker.Concurrency == 0 {
		c.Worker.Concurrency = 2
	}
}

// CacheTTL returns the catalog cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTL) * time.Second
}

// MaxUploadBytes returns the upload size cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Upload.MaxSizeMB) * 1024 * 1024
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
