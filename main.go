package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"marketquotes/internal/config"
	"marketquotes/internal/coordinator"
	"marketquotes/internal/custom"
	"marketquotes/internal/finnhub"
	"marketquotes/internal/overview"
	"marketquotes/internal/quote"
	"marketquotes/internal/resolver"
	"marketquotes/internal/scraper"
	"marketquotes/internal/yahoo"
)

func main() {
	flags := pflag.NewFlagSet("marketquotes", pflag.ExitOnError)
	configFile := flags.String("config", "", "path to a config file")
	showOverview := flags.Bool("overview", false, "print the grouped market overview")
	asJSON := flags.Bool("json", false, "print results as JSON")
	_ = flags.Parse(os.Args[1:])

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	coord := newCoordinator(cfg, logger)

	// Add timeout to prevent hanging indefinitely
	fetchCtx, fetchCancel := context.WithTimeout(ctx, 30*time.Second)
	defer fetchCancel()

	if *showOverview {
		ov := overview.Build(fetchCtx, coord, overview.DefaultLayout())
		if err := writeJSON(os.Stdout, ov); err != nil {
			log.Fatalf("Failed to write overview: %v", err)
		}
		return
	}

	symbols := flags.Args()
	if len(symbols) == 0 {
		symbols = cfg.StockSymbols
	}
	if len(symbols) == 0 {
		log.Fatal("No symbols given: pass them as arguments or set STOCK_SYMBOLS")
	}

	quotes := coord.FetchQuotes(fetchCtx, symbols)
	if *asJSON {
		err = writeJSON(os.Stdout, quotes)
	} else {
		err = writeQuotes(os.Stdout, symbols, quotes)
	}
	if err != nil {
		log.Fatalf("Failed to write quotes: %v", err)
	}
}

// newCoordinator wires every adapter from configuration into a batch coordinator
func newCoordinator(cfg *config.Config, logger *slog.Logger) *coordinator.Coordinator {
	res := resolver.New(resolver.Adapters{
		Custom:    custom.NewQuoteFetcher(cfg.CustomURLTemplate, cfg.CustomAPIKey, cfg.HTTPTimeout),
		Primary:   finnhub.NewQuoteFetcher(cfg.FinnhubAPIKey, cfg.FinnhubBaseURL, cfg.HTTPTimeout, logger),
		Secondary: yahoo.NewQuoteFetcher(cfg.YahooAPIKey, cfg.YahooBaseURL, cfg.HTTPTimeout),
		Scraper:   scraper.NewQuoteFetcher(cfg.ScraperBaseURL, nil, cfg.HTTPTimeout),
	}, resolver.Options{
		EagerScrape: cfg.ScraperEager,
		Fallbacks:   cfg.Fallbacks(),
		Logger:      logger,
	})
	return coordinator.New(res, logger)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// writeQuotes prints one line per requested symbol in input order
func writeQuotes(w io.Writer, symbols []string, quotes map[string]quote.Quote) error {
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		sym := quote.NormalizeSymbol(s)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true

		q, ok := quotes[sym]
		if !ok {
			if _, err := fmt.Fprintf(w, "%s: unavailable\n", sym); err != nil {
				return err
			}
			continue
		}
		line := fmt.Sprintf("%s: $%.2f (%+.2f, %+.2f%%) [%s]", sym, q.Price, q.Change, q.ChangePercent, q.Source)
		if q.MarketCap > 0 {
			line += fmt.Sprintf(" cap $%.0f", q.MarketCap)
		}
		if _, err := fmt.Fprintln(w, strings.TrimSpace(line)); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
