package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"marketquotes/internal/quote"
)

// FallbackQuote declares the last-known value served when every source fails
type FallbackQuote struct {
	Symbol        string  `mapstructure:"symbol"`
	Price         float64 `mapstructure:"price"`
	Change        float64 `mapstructure:"change"`
	ChangePercent float64 `mapstructure:"change_percent"`
}

// Config holds all configuration for the quote engine.
// Missing credentials disable the matching adapter instead of failing.
type Config struct {
	// Custom structured API
	CustomURLTemplate string `mapstructure:"custom_url_template"`
	CustomAPIKey      string `mapstructure:"custom_api_key"`

	// API keys for structured providers
	FinnhubAPIKey string `mapstructure:"finnhub_api_key"`
	YahooAPIKey   string `mapstructure:"yahoo_api_key"`

	// Base URLs for upstream endpoints (configurable for testing)
	FinnhubBaseURL string `mapstructure:"finnhub_base_url"`
	YahooBaseURL   string `mapstructure:"yahoo_base_url"`
	ScraperBaseURL string `mapstructure:"scraper_base_url"`

	// Resolution policy
	ScraperEager   bool            `mapstructure:"scraper_eager"`
	HTTPTimeout    time.Duration   `mapstructure:"http_timeout"`
	FallbackQuotes []FallbackQuote `mapstructure:"fallback_quotes"`

	LogLevel     string   `mapstructure:"log_level"`
	StockSymbols []string `mapstructure:"stock_symbols"`
}

// Fallbacks returns the declared fallback quotes keyed by normalized symbol
func (c *Config) Fallbacks() map[string]quote.Quote {
	out := make(map[string]quote.Quote, len(c.FallbackQuotes))
	for _, f := range c.FallbackQuotes {
		sym := quote.NormalizeSymbol(f.Symbol)
		out[sym] = quote.Quote{
			Symbol:        sym,
			Price:         f.Price,
			Change:        f.Change,
			ChangePercent: f.ChangePercent,
			Source:        quote.SourceStatic,
		}
	}
	return out
}

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over config file values.
//
// Recognized environment variables:
//   - STOCK_API_URL_TEMPLATE (custom API, {symbol} or {ticker} placeholder)
//   - MARKET_API_KEY (custom API key, appended as apikey=)
//   - FINNHUB_API_KEY
//   - YAHOO_API_KEY
//   - FINNHUB_BASE_URL, YAHOO_BASE_URL, SCRAPER_BASE_URL (optional, default to production)
//   - SCRAPER_EAGER, HTTP_TIMEOUT, LOG_LEVEL
//   - STOCK_SYMBOLS (comma separated)
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.AutomaticEnv()

	// Set defaults for base URLs
	v.SetDefault("finnhub_base_url", "https://finnhub.io/api/v1")
	v.SetDefault("yahoo_base_url", "https://yfapi.net")
	v.SetDefault("scraper_base_url", "https://www.google.com/finance")
	v.SetDefault("scraper_eager", false)
	v.SetDefault("http_timeout", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("fallback_quotes", []map[string]any{
		{"symbol": "^TNX", "price": 4.25, "change": 0.05, "change_percent": 1.15},
	})

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.marketquotes")

		// Read config file (ignore if not found)
		_ = v.ReadInConfig()
	}

	bindings := map[string]string{
		"custom_url_template": "STOCK_API_URL_TEMPLATE",
		"custom_api_key":      "MARKET_API_KEY",
		"finnhub_api_key":     "FINNHUB_API_KEY",
		"yahoo_api_key":       "YAHOO_API_KEY",
		"finnhub_base_url":    "FINNHUB_BASE_URL",
		"yahoo_base_url":      "YAHOO_BASE_URL",
		"scraper_base_url":    "SCRAPER_BASE_URL",
		"scraper_eager":       "SCRAPER_EAGER",
		"http_timeout":        "HTTP_TIMEOUT",
		"log_level":           "LOG_LEVEL",
		"stock_symbols":       "STOCK_SYMBOLS",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// comma separated lists arrive from the environment as one element
	config.StockSymbols = splitSymbols(config.StockSymbols)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var problems []string

	if c.CustomURLTemplate != "" &&
		!strings.Contains(c.CustomURLTemplate, "{symbol}") &&
		!strings.Contains(c.CustomURLTemplate, "{ticker}") {
		problems = append(problems, "STOCK_API_URL_TEMPLATE must contain {symbol} or {ticker}")
	}
	if c.HTTPTimeout < 0 {
		problems = append(problems, "HTTP_TIMEOUT must not be negative")
	}
	for _, f := range c.FallbackQuotes {
		if quote.NormalizeSymbol(f.Symbol) == "" {
			problems = append(problems, "fallback quote without symbol")
			continue
		}
		if !quote.Positive(f.Price) {
			problems = append(problems, fmt.Sprintf("fallback quote for %s needs a positive price", f.Symbol))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func splitSymbols(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
