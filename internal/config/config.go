package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Build-time variables injected via -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const (
	IPSourceInterfaces = "interfaces"
	IPSourceSTUN       = "stun"
	IPSourceEcho       = "echo"

	ThroughputOokla = "ookla"
	ThroughputHTTP  = "http"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all service configuration. Values come from DefaultConfig,
// then the optional YAML file named by FINDER_CONFIG, then the environment.
type Config struct {
	// Listen is the TCP address of the HTTP server.
	Listen string `yaml:"listen"`

	// Debug enables debug logging.
	Debug bool `yaml:"debug"`

	// LogDir additionally writes logs to <LogDir>/finder.log when set.
	LogDir string `yaml:"log_dir"`

	// IPSource selects how the reported address is discovered.
	IPSource    string        `yaml:"ip_source"`
	STUNServers []string      `yaml:"stun_servers"`
	STUNTimeout time.Duration `yaml:"stun_timeout"`
	EchoURLs    []string      `yaml:"echo_urls"`

	// ThroughputBackend selects the speed measurement implementation.
	ThroughputBackend string          `yaml:"throughput_backend"`
	SpeedtestBinary   string          `yaml:"speedtest_binary"`
	HTTPProbe         HTTPProbeConfig `yaml:"http_probe"`

	// CacheBackend selects where reports are kept.
	CacheBackend string      `yaml:"cache_backend"`
	Redis        RedisConfig `yaml:"redis"`

	MetricsEnabled bool `yaml:"metrics_enabled"`
}

type HTTPProbeConfig struct {
	DownloadURL string `yaml:"download_url"`
	UploadURL   string `yaml:"upload_url"`
	UploadBytes int64  `yaml:"upload_bytes"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	DB        int    `yaml:"db"`
	Password  string `yaml:"password"`
	KeyPrefix string `yaml:"key_prefix"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:            ":3000",
		IPSource:          IPSourceInterfaces,
		STUNServers:       []string{"stun.l.google.com:19302"},
		STUNTimeout:       3 * time.Second,
		EchoURLs: []string{
			"https://api.ipify.org",
			"https://icanhazip.com",
			"https://ifconfig.me",
		},
		ThroughputBackend: ThroughputOokla,
		SpeedtestBinary:   "speedtest",
		HTTPProbe: HTTPProbeConfig{
			DownloadURL: "https://speed.cloudflare.com/__down?bytes=25000000",
			UploadURL:   "https://speed.cloudflare.com/__up",
			UploadBytes: 10_000_000,
		},
		CacheBackend: CacheMemory,
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			KeyPrefix: "finder:report:",
		},
		MetricsEnabled: true,
	}
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path := strings.TrimSpace(os.Getenv("FINDER_CONFIG")); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("FINDER_LISTEN"); v != "" {
		cfg.Listen = v
	}

	if v := os.Getenv("FINDER_DEBUG"); v != "" {
		cfg.Debug = v == "true"
	}

	if v := os.Getenv("FINDER_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}

	if v := os.Getenv("FINDER_IP_SOURCE"); v != "" {
		cfg.IPSource = v
	}

	if v := os.Getenv("FINDER_STUN_SERVERS"); v != "" {
		cfg.STUNServers = splitList(v)
	}

	if v := os.Getenv("FINDER_STUN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FINDER_STUN_TIMEOUT: %w", err)
		}
		cfg.STUNTimeout = d
	}

	if v := os.Getenv("FINDER_ECHO_URLS"); v != "" {
		cfg.EchoURLs = splitList(v)
	}

	if v := os.Getenv("FINDER_THROUGHPUT_BACKEND"); v != "" {
		cfg.ThroughputBackend = v
	}

	if v := os.Getenv("FINDER_SPEEDTEST_BINARY"); v != "" {
		cfg.SpeedtestBinary = v
	}

	if v := os.Getenv("FINDER_HTTP_DOWNLOAD_URL"); v != "" {
		cfg.HTTPProbe.DownloadURL = v
	}

	if v := os.Getenv("FINDER_HTTP_UPLOAD_URL"); v != "" {
		cfg.HTTPProbe.UploadURL = v
	}

	if v := os.Getenv("FINDER_HTTP_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FINDER_HTTP_UPLOAD_BYTES: %w", err)
		}
		cfg.HTTPProbe.UploadBytes = n
	}

	if v := os.Getenv("FINDER_CACHE_BACKEND"); v != "" {
		cfg.CacheBackend = v
	}

	if v := os.Getenv("FINDER_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}

	if v := os.Getenv("FINDER_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FINDER_REDIS_DB: %w", err)
		}
		cfg.Redis.DB = n
	}

	if v := os.Getenv("FINDER_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}

	if v := os.Getenv("FINDER_REDIS_KEY_PREFIX"); v != "" {
		cfg.Redis.KeyPrefix = v
	}

	if v := os.Getenv("FINDER_METRICS"); v != "" {
		cfg.MetricsEnabled = v == "true"
	}

	return nil
}

// Validate rejects unknown backends and missing required values.
func Validate(cfg *Config) error {
	if cfg.Listen == "" {
		return fmt.Errorf("listen address is required")
	}

	switch cfg.IPSource {
	case IPSourceInterfaces:
	case IPSourceSTUN:
		if len(cfg.STUNServers) == 0 {
			return fmt.Errorf("ip_source %q requires stun_servers", cfg.IPSource)
		}
	case IPSourceEcho:
		if len(cfg.EchoURLs) == 0 {
			return fmt.Errorf("ip_source %q requires echo_urls", cfg.IPSource)
		}
	default:
		return fmt.Errorf("unknown ip_source %q (expected %q, %q or %q)", cfg.IPSource, IPSourceInterfaces, IPSourceSTUN, IPSourceEcho)
	}

	switch cfg.ThroughputBackend {
	case ThroughputOokla:
		if cfg.SpeedtestBinary == "" {
			return fmt.Errorf("speedtest_binary is required")
		}
	case ThroughputHTTP:
		if cfg.HTTPProbe.DownloadURL == "" || cfg.HTTPProbe.UploadURL == "" {
			return fmt.Errorf("http_probe download_url and upload_url are required")
		}
		if cfg.HTTPProbe.UploadBytes <= 0 {
			return fmt.Errorf("http_probe upload_bytes must be positive")
		}
	default:
		return fmt.Errorf("unknown throughput_backend %q (expected %q or %q)", cfg.ThroughputBackend, ThroughputOokla, ThroughputHTTP)
	}

	switch cfg.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for cache_backend %q", CacheRedis)
		}
		if cfg.Redis.KeyPrefix == "" {
			return fmt.Errorf("redis.key_prefix is required for cache_backend %q", CacheRedis)
		}
	default:
		return fmt.Errorf("unknown cache_backend %q (expected %q or %q)", cfg.CacheBackend, CacheMemory, CacheRedis)
	}

	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
