package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	VenueBinanceSpot = "binance-spot"
	VenuePaper       = "paper"
)

// Config holds environment-driven settings for the trader.
type Config struct {
	Port string

	// Venue
	Venue             string // "paper" (default) or "binance-spot"
	BinanceTestnet    bool
	BinanceAPIKey     string
	BinanceAPISecret  string
	BinanceRecvWindow int64

	// Paper venue
	PaperInitialBalance float64
	PaperFeeRate        float64
	PaperAssets         []string

	// Engine
	QuoteAsset       string
	MaxFee           float64
	BuyPercent       float64
	LiquidateOnStart bool

	// Advisor
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	AdvisorPath   string
	Advisor       AdvisorFile

	// Scheduling
	AdviceInterval time.Duration
	SweepInterval  time.Duration

	// Journal
	EnableJournal bool
	DBPath        string

	// Event export; disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// AdvisorFile is the YAML document named by ADVISOR_CONFIG.
type AdvisorFile struct {
	Prompt       string   `yaml:"prompt"`
	DefaultAsset string   `yaml:"default_asset"`
	Feeds        []string `yaml:"feeds"`
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Venue:               strings.ToLower(getEnv("VENUE", VenuePaper)),
		BinanceTestnet:      getEnvBool("BINANCE_TESTNET", false),
		BinanceAPIKey:       os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret:    os.Getenv("BINANCE_API_SECRET"),
		BinanceRecvWindow:   int64(getEnvInt("BINANCE_RECV_WINDOW", 5000)),
		PaperInitialBalance: getEnvFloat("PAPER_INITIAL_BALANCE", 10000.0),
		PaperFeeRate:        getEnvFloat("PAPER_FEE_RATE", 0.001),
		PaperAssets:         upperAll(splitAndTrim(getEnv("PAPER_ASSETS", "BTC,ETH,SOL,AVAX"))),
		QuoteAsset:          strings.ToUpper(getEnv("QUOTE_ASSET", "USDT")),
		MaxFee:              getEnvFloat("MAX_FEE", 0.001),
		BuyPercent:          getEnvFloat("BUY_PERCENT", 20),
		LiquidateOnStart:    getEnvBool("LIQUIDATE_ON_START", true),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAIBaseURL:       os.Getenv("OPENAI_BASE_URL"),
		AdvisorPath:         getEnv("ADVISOR_CONFIG", "./advisor.yaml"),
		AdviceInterval:      getEnvDuration("ADVICE_INTERVAL", 5*time.Minute),
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", time.Minute),
		EnableJournal:       getEnvBool("ENABLE_JOURNAL", true),
		DBPath:              getEnv("DB_PATH", "./data/news-trader.db"),
		KafkaBrokers:        splitAndTrim(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "news-trader.events"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	advisor, err := LoadAdvisorFile(cfg.AdvisorPath)
	if err != nil {
		return nil, err
	}
	cfg.Advisor = advisor
	if v := os.Getenv("DEFAULT_ASSET"); v != "" {
		cfg.Advisor.DefaultAsset = v
	}
	if cfg.Advisor.DefaultAsset == "" {
		cfg.Advisor.DefaultAsset = "AVAX"
	}
	cfg.Advisor.DefaultAsset = strings.ToUpper(cfg.Advisor.DefaultAsset)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadAdvisorFile parses the advisor YAML. A missing file yields an empty
// document so the paper venue can start without one.
func LoadAdvisorFile(path string) (AdvisorFile, error) {
	var f AdvisorFile
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return f, fmt.Errorf("read advisor config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("parse advisor config %s: %w", path, err)
	}
	return f, nil
}

// Validate rejects settings the trader cannot run with.
func (c *Config) Validate() error {
	switch c.Venue {
	case VenuePaper:
	case VenueBinanceSpot:
		if c.BinanceAPIKey == "" || c.BinanceAPISecret == "" {
			return errors.New("binance-spot venue requires BINANCE_API_KEY and BINANCE_API_SECRET")
		}
	default:
		return fmt.Errorf("unknown VENUE %q", c.Venue)
	}
	if c.MaxFee < 0 || c.MaxFee >= 1 {
		return fmt.Errorf("MAX_FEE must be in [0, 1), got %v", c.MaxFee)
	}
	if c.BuyPercent <= 0 || c.BuyPercent > 100 {
		return fmt.Errorf("BUY_PERCENT must be in (0, 100], got %v", c.BuyPercent)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func upperAll(vals []string) []string {
	for i, v := range vals {
		vals[i] = strings.ToUpper(v)
	}
	return vals
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
