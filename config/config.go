package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Fundingflow FundingflowConfig `yaml:"fundingflow"`
	Reader      ReaderConfig      `yaml:"reader"`
	Aggregator  AggregatorConfig  `yaml:"aggregator"`
	Source      SourceConfig      `yaml:"source"`
	Writer      WriterConfig      `yaml:"writer"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type FundingflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ReaderConfig struct {
	Timeout        time.Duration        `yaml:"timeout"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	ConnectionPool ConnectionPoolConfig `yaml:"connection_pool"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	BurstSize         int `yaml:"burst_size"`
}

type ConnectionPoolConfig struct {
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxConnsPerHost int           `yaml:"max_conns_per_host"`
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// AggregatorConfig fixes the exchange set and its reporting order. Records
// in every exchange report follow the order of Exchanges regardless of task
// completion order.
type AggregatorConfig struct {
	Quote     string   `yaml:"quote"`
	Exchanges []string `yaml:"exchanges"`
}

// SourceConfig carries per-venue base URL overrides. Empty values fall back
// to each adapter's production endpoint.
type SourceConfig struct {
	Bitget  VenueConfig `yaml:"bitget"`
	Huobi   VenueConfig `yaml:"huobi"`
	Bybit   VenueConfig `yaml:"bybit"`
	Bingx   VenueConfig `yaml:"bingx"`
	Gateio  VenueConfig `yaml:"gateio"`
	Okx     VenueConfig `yaml:"okx"`
	Mexc    VenueConfig `yaml:"mexc"`
	Kucoin  VenueConfig `yaml:"kucoin"`
	Binance VenueConfig `yaml:"binance"`
}

type VenueConfig struct {
	URL string `yaml:"url"`
}

type WriterConfig struct {
	Output     string        `yaml:"output"`
	MaxWorkers int           `yaml:"max_workers"`
	Formats    FormatsConfig `yaml:"formats"`
}

type FormatsConfig struct {
	Parquet ParquetConfig `yaml:"parquet"`
}

type ParquetConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Compression string `yaml:"compression"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"`
	Output        string `yaml:"output"`
	MaxAge        int    `yaml:"max_age"`
	DashboardName string `yaml:"dashboard_name"`
}

// VenueURL returns the configured base URL override for the named exchange,
// or the empty string when the adapter default should be used.
func (c *Config) VenueURL(exchange string) string {
	switch strings.ToLower(exchange) {
	case "bitget":
		return c.Source.Bitget.URL
	case "huobi":
		return c.Source.Huobi.URL
	case "bybit":
		return c.Source.Bybit.URL
	case "bingx":
		return c.Source.Bingx.URL
	case "gateio":
		return c.Source.Gateio.URL
	case "okx":
		return c.Source.Okx.URL
	case "mexc":
		return c.Source.Mexc.URL
	case "kucoin":
		return c.Source.Kucoin.URL
	case "binance":
		return c.Source.Binance.URL
	default:
		return ""
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{
		Reader: ReaderConfig{
			Timeout: 10 * time.Second,
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 5,
				BurstSize:         1,
			},
			ConnectionPool: ConnectionPoolConfig{
				MaxIdleConns:    16,
				MaxConnsPerHost: 8,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		Aggregator: AggregatorConfig{Quote: "USDT"},
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}

	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)
	config.Aggregator.Quote = strings.ToUpper(strings.TrimSpace(config.Aggregator.Quote))
	if config.Aggregator.Quote == "" {
		config.Aggregator.Quote = "USDT"
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Fundingflow.Name == "" {
		return fmt.Errorf("fundingflow.name is required")
	}

	if cfg.Fundingflow.Version == "" {
		return fmt.Errorf("fundingflow.version is required")
	}

	if len(cfg.Aggregator.Exchanges) == 0 {
		return fmt.Errorf("aggregator.exchanges must list at least one exchange")
	}
	seen := make(map[string]struct{}, len(cfg.Aggregator.Exchanges))
	for _, e := range cfg.Aggregator.Exchanges {
		name := strings.ToLower(strings.TrimSpace(e))
		if name == "" {
			return fmt.Errorf("aggregator.exchanges contains an empty entry")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("aggregator.exchanges lists %q twice", name)
		}
		seen[name] = struct{}{}
	}

	if cfg.Reader.Timeout <= 0 {
		return fmt.Errorf("reader.timeout must be greater than 0")
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("storage.s3.access_key_id and storage.s3.secret_access_key are required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
