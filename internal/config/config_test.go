package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envVars = []string{
	"STOCK_API_URL_TEMPLATE",
	"MARKET_API_KEY",
	"FINNHUB_API_KEY",
	"YAHOO_API_KEY",
	"FINNHUB_BASE_URL",
	"YAHOO_BASE_URL",
	"SCRAPER_BASE_URL",
	"SCRAPER_EAGER",
	"HTTP_TIMEOUT",
	"LOG_LEVEL",
	"STOCK_SYMBOLS",
}

// clearEnv blanks every recognized variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envVars {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	clearEnv(t)

	values := map[string]string{
		"STOCK_API_URL_TEMPLATE": "https://q.example/{symbol}",
		"MARKET_API_KEY":         "test_market_key",
		"FINNHUB_API_KEY":        "test_finnhub_key",
		"YAHOO_API_KEY":          "test_yahoo_key",
		"FINNHUB_BASE_URL":       "https://test.finnhub.io",
		"YAHOO_BASE_URL":         "https://test.yfapi.net",
		"SCRAPER_BASE_URL":       "https://test.google.com/finance",
		"SCRAPER_EAGER":          "true",
		"HTTP_TIMEOUT":           "7s",
		"STOCK_SYMBOLS":          "AAPL, msft,^GSPC",
	}
	for key, value := range values {
		t.Setenv(key, value)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"CustomURLTemplate", cfg.CustomURLTemplate, "https://q.example/{symbol}"},
		{"CustomAPIKey", cfg.CustomAPIKey, "test_market_key"},
		{"FinnhubAPIKey", cfg.FinnhubAPIKey, "test_finnhub_key"},
		{"YahooAPIKey", cfg.YahooAPIKey, "test_yahoo_key"},
		{"FinnhubBaseURL", cfg.FinnhubBaseURL, "https://test.finnhub.io"},
		{"YahooBaseURL", cfg.YahooBaseURL, "https://test.yfapi.net"},
		{"ScraperBaseURL", cfg.ScraperBaseURL, "https://test.google.com/finance"},
		{"StockSymbols", strings.Join(cfg.StockSymbols, "|"), "AAPL|msft|^GSPC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}

	if !cfg.ScraperEager {
		t.Error("ScraperEager = false, want true")
	}
	if cfg.HTTPTimeout != 7*time.Second {
		t.Errorf("HTTPTimeout = %v, want 7s", cfg.HTTPTimeout)
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"FinnhubBaseURL", cfg.FinnhubBaseURL, "https://finnhub.io/api/v1"},
		{"YahooBaseURL", cfg.YahooBaseURL, "https://yfapi.net"},
		{"ScraperBaseURL", cfg.ScraperBaseURL, "https://www.google.com/finance"},
		{"LogLevel", cfg.LogLevel, "info"},
		{"FinnhubAPIKey", cfg.FinnhubAPIKey, ""},
		{"CustomURLTemplate", cfg.CustomURLTemplate, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}

	if cfg.ScraperEager {
		t.Error("ScraperEager = true, want false")
	}
	if cfg.HTTPTimeout != 0 {
		t.Errorf("HTTPTimeout = %v, want 0", cfg.HTTPTimeout)
	}

	fb := cfg.Fallbacks()
	tnx, ok := fb["^TNX"]
	if !ok {
		t.Fatalf("Fallbacks() = %v, want ^TNX entry", fb)
	}
	if tnx.Price != 4.25 || tnx.Change != 0.05 || tnx.ChangePercent != 1.15 {
		t.Errorf("^TNX fallback = %+v, want {4.25 0.05 1.15}", tnx)
	}
	if tnx.Source != "static" {
		t.Errorf("^TNX fallback source = %q, want static", tnx.Source)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "marketquotes.yaml")
	content := `
finnhub_api_key: file_key
custom_url_template: "https://q.example/quote?s={ticker}"
fallback_quotes:
  - symbol: "^tnx"
    price: 4.4
  - symbol: "^VIX"
    price: 15.2
    change: -0.3
    change_percent: -1.9
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("FINNHUB_API_KEY", "env_key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.FinnhubAPIKey != "env_key" {
		t.Errorf("FinnhubAPIKey = %q, want env_key (environment wins)", cfg.FinnhubAPIKey)
	}
	if cfg.CustomURLTemplate != "https://q.example/quote?s={ticker}" {
		t.Errorf("CustomURLTemplate = %q", cfg.CustomURLTemplate)
	}

	fb := cfg.Fallbacks()
	if len(fb) != 2 {
		t.Fatalf("Fallbacks() has %d entries, want 2: %v", len(fb), fb)
	}
	if fb["^TNX"].Price != 4.4 {
		t.Errorf("^TNX price = %v, want 4.4", fb["^TNX"].Price)
	}
	if fb["^VIX"].ChangePercent != -1.9 {
		t.Errorf("^VIX change percent = %v, want -1.9", fb["^VIX"].ChangePercent)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() expected error for missing explicit config file, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantErrText string
	}{
		{
			name:        "template without placeholder",
			cfg:         Config{CustomURLTemplate: "https://q.example/quote"},
			wantErrText: "STOCK_API_URL_TEMPLATE",
		},
		{
			name:        "negative timeout",
			cfg:         Config{HTTPTimeout: -time.Second},
			wantErrText: "HTTP_TIMEOUT",
		},
		{
			name:        "fallback without price",
			cfg:         Config{FallbackQuotes: []FallbackQuote{{Symbol: "^TNX"}}},
			wantErrText: "positive price",
		},
		{
			name:        "fallback without symbol",
			cfg:         Config{FallbackQuotes: []FallbackQuote{{Price: 1}}},
			wantErrText: "without symbol",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrText) {
				t.Errorf("Validate() error = %q, want error containing %q", err.Error(), tt.wantErrText)
			}
		})
	}

	ok := Config{CustomURLTemplate: "https://q.example/{symbol}", HTTPTimeout: time.Second}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate() returned unexpected error: %v", err)
	}
}
