package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the agent system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scorer    ScorerConfig    `mapstructure:"scorer"`
	Search    SearchConfig    `mapstructure:"search"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Batch     BatchConfig     `mapstructure:"batch"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server settings for serve mode
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LLMConfig contains LLM provider configurations
type LLMConfig struct {
	Providers map[string]LLMProvider `mapstructure:"providers"`
	Routing   LLMRoutingConfig       `mapstructure:"routing"`
}

// LLMProvider represents a single LLM provider configuration
type LLMProvider struct {
	Type       string              `mapstructure:"type"` // openai, anthropic, local, etc.
	APIKey     string              `mapstructure:"api_key"`
	BaseURL    string              `mapstructure:"base_url"`
	Models     map[string]LLMModel `mapstructure:"models"`
	MaxRetries int                 `mapstructure:"max_retries"`
	Timeout    time.Duration       `mapstructure:"timeout"`
}

// LLMModel represents a specific model configuration
type LLMModel struct {
	Name            string  `mapstructure:"name"`
	APIName         string  `mapstructure:"api_name"`
	MaxTokens       int     `mapstructure:"max_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
	CostPer1K       float64 `mapstructure:"cost_per_1k_input"`
	CostPer1KOutput float64 `mapstructure:"cost_per_1k_output"`
	Reasoning       bool    `mapstructure:"reasoning"` // supports extended reasoning / thinking mode
}

// LLMRoutingConfig defines which model to use for different phases
type LLMRoutingConfig struct {
	Planning  string `mapstructure:"planning"`  // initial search-vs-answer plan
	Decision  string `mapstructure:"decision"`  // per-iteration refinement decisions
	Synthesis string `mapstructure:"synthesis"` // final answer generation
	Fallback  string `mapstructure:"fallback"`
}

// TelemetryConfig contains telemetry and monitoring settings
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	MetricsPort  int    `mapstructure:"metrics_port"`
	CostTracking bool   `mapstructure:"cost_tracking"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// FetcherConfig controls the headless browser fetch tool
type FetcherConfig struct {
	Type      string        `mapstructure:"type"` // chromedp
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxChars  int           `mapstructure:"max_chars"`
	UserAgent string        `mapstructure:"user_agent"`
	Headless  bool          `mapstructure:"headless"`
}

// CacheConfig controls the persistent query result cache
type CacheConfig struct {
	Type  string        `mapstructure:"type"` // file, redis
	TTL   time.Duration `mapstructure:"ttl"`
	File  FileConfig    `mapstructure:"file"`
	Redis RedisConfig   `mapstructure:"redis"`
}

// FileConfig contains file storage settings
type FileConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("cache.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("cache.redis.port required")
	}
	return nil
}

// Addr returns host:port for the redis client.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// ScorerConfig contains authority and deny lists for result scoring
type ScorerConfig struct {
	AuthorityDomains []string `mapstructure:"authority_domains"`
	DenyDomains      []string `mapstructure:"deny_domains"`
}

// SearchConfig controls the fallback search strategy
type SearchConfig struct {
	Engine string `mapstructure:"engine"`
	Locale string `mapstructure:"locale"`
}

// AgentConfig controls the orchestration loop
type AgentConfig struct {
	MaxRefinements    int    `mapstructure:"max_refinements"`
	SynthesisMaxChars int    `mapstructure:"synthesis_max_chars"`
	ExtractorDir      string `mapstructure:"extractor_dir"`
	SessionTopK       int    `mapstructure:"session_top_k"`
}

// BatchConfig controls batch query execution
type BatchConfig struct {
	RatePerMinute int    `mapstructure:"rate_per_minute"`
	OutputFile    string `mapstructure:"output_file"`
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	setDefaults()

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("WEBSCOUT")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)
	viper.AutomaticEnv()

	var config Config
	if err := viper.ReadInConfig(); err != nil {
		// config file is optional; defaults plus WEBSCOUT_* env vars are enough
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	if config.Cache.Type == "redis" {
		if err := config.Cache.Redis.Validate(); err != nil {
			panic(err)
		}
	}
	return &config
}

func setDefaults() {
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "60s")
	viper.SetDefault("server.address", ":8010")
	viper.SetDefault("llm.routing.planning", "default")
	viper.SetDefault("llm.routing.decision", "default")
	viper.SetDefault("llm.routing.synthesis", "default")
	viper.SetDefault("llm.routing.fallback", "default")
	viper.SetDefault("fetcher.type", "chromedp")
	viper.SetDefault("fetcher.timeout", "15s")
	viper.SetDefault("fetcher.max_chars", 20000)
	viper.SetDefault("fetcher.headless", true)
	viper.SetDefault("cache.type", "file")
	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("cache.file.data_dir", "data")
	viper.SetDefault("search.engine", "bing")
	viper.SetDefault("search.locale", "en-US")
	viper.SetDefault("agent.max_refinements", 3)
	viper.SetDefault("agent.synthesis_max_chars", 15000)
	viper.SetDefault("agent.session_top_k", 5)
	viper.SetDefault("batch.rate_per_minute", 12)
	viper.SetDefault("batch.output_file", "data/batch_results.json")
}
