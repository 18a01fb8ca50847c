package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAdvisor(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "advisor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ADVISOR_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, VenuePaper, cfg.Venue)
	assert.Equal(t, "USDT", cfg.QuoteAsset)
	assert.Equal(t, 0.001, cfg.MaxFee)
	assert.Equal(t, 20.0, cfg.BuyPercent)
	assert.True(t, cfg.LiquidateOnStart)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.Equal(t, 5*time.Minute, cfg.AdviceInterval)
	assert.Equal(t, "AVAX", cfg.Advisor.DefaultAsset)
	assert.Equal(t, []string{"BTC", "ETH", "SOL", "AVAX"}, cfg.PaperAssets)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "news-trader.events", cfg.KafkaTopic)
}

func TestLoadAdvisorFileAndOverrides(t *testing.T) {
	t.Setenv("ADVISOR_CONFIG", writeAdvisor(t, `
prompt: |
  Reply with "buy <asset> <hours>" or "sell <asset>".
default_asset: sol
feeds:
  - https://example.com/rss
  - https://example.org/atom
`))
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("PAPER_ASSETS", " btc, ,eth ")
	t.Setenv("LIQUIDATE_ON_START", "false")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.Advisor.Prompt, "buy <asset> <hours>")
	assert.Equal(t, "SOL", cfg.Advisor.DefaultAsset)
	assert.Len(t, cfg.Advisor.Feeds, 2)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.PaperAssets)
	assert.False(t, cfg.LiquidateOnStart)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)

	t.Setenv("DEFAULT_ASSET", "dot")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "DOT", cfg.Advisor.DefaultAsset)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("ADVISOR_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	t.Setenv("VENUE", "binance-spot")
	_, err := Load()
	assert.ErrorContains(t, err, "BINANCE_API_KEY")

	t.Setenv("VENUE", "kraken")
	_, err = Load()
	assert.ErrorContains(t, err, "unknown VENUE")

	t.Setenv("VENUE", "paper")
	t.Setenv("MAX_FEE", "1.5")
	_, err = Load()
	assert.ErrorContains(t, err, "MAX_FEE")
}

func TestLoadBadYAML(t *testing.T) {
	t.Setenv("ADVISOR_CONFIG", writeAdvisor(t, "feeds: [unterminated"))
	_, err := Load()
	assert.ErrorContains(t, err, "parse advisor config")
}
