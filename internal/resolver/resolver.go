package resolver

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc"

	"marketquotes/internal/fetcher"
	"marketquotes/internal/quote"
)

// Adapters holds the configured sources. Nil entries are treated as unavailable.
type Adapters struct {
	Custom    fetcher.Adapter
	Primary   fetcher.Adapter
	Secondary fetcher.Adapter
	Scraper   fetcher.Adapter
}

// Options tunes the merge policy
type Options struct {
	// EagerScrape consults the scraper alongside the structured adapters
	// instead of only after all of them failed.
	EagerScrape bool

	// Fallbacks are last-known quotes returned when every source fails,
	// keyed by normalized symbol.
	Fallbacks map[string]quote.Quote

	Logger *slog.Logger
}

// Resolver reconciles the answers of several adapters into one quote
type Resolver struct {
	adapters Adapters
	opts     Options
	logger   *slog.Logger
}

// New creates a resolver over the given adapters
func New(adapters Adapters, opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	fallbacks := make(map[string]quote.Quote, len(opts.Fallbacks))
	for sym, q := range opts.Fallbacks {
		sym = quote.NormalizeSymbol(sym)
		q.Symbol = sym
		q.Source = quote.SourceStatic
		fallbacks[sym] = q
	}
	opts.Fallbacks = fallbacks

	return &Resolver{
		adapters: adapters,
		opts:     opts,
		logger:   logger,
	}
}

// outcomes of one resolution, indexed by role
type outcomes struct {
	custom, primary, secondary, scraper fetcher.Result
	scraped                             bool
}

// FetchQuote resolves symbol across every configured adapter.
// The boolean is false when no source produced a usable quote and no
// fallback is declared for the symbol.
func (r *Resolver) FetchQuote(ctx context.Context, symbol string) (quote.Quote, bool) {
	symbol = quote.NormalizeSymbol(symbol)
	if symbol == "" {
		return quote.Quote{}, false
	}

	out := r.collect(ctx, symbol)

	base, ok := selectBase(out)
	if !ok && !out.scraped {
		r.logger.Debug("structured sources exhausted, scraping", "symbol", symbol)
		out.scraper = r.call(ctx, r.adapters.Scraper, symbol)
		out.scraped = true
		base, ok = selectBase(out)
	}

	if !ok {
		if fb, found := r.opts.Fallbacks[symbol]; found {
			r.logger.Warn("all sources failed, using last known quote", "symbol", symbol, "price", fb.Price)
			return fb, true
		}
		r.logger.Debug("no quote resolved", "symbol", symbol)
		return quote.Quote{}, false
	}

	base = applyExtendedHours(base, out.secondary)
	base = enrichMarketCap(base, out)
	base.Symbol = symbol

	return base, true
}

// collect runs the adapters for one symbol concurrently and waits for all of them
func (r *Resolver) collect(ctx context.Context, symbol string) outcomes {
	var (
		out outcomes
		wg  conc.WaitGroup
	)

	wg.Go(func() { out.custom = r.call(ctx, r.adapters.Custom, symbol) })
	wg.Go(func() { out.primary = r.call(ctx, r.adapters.Primary, symbol) })
	wg.Go(func() { out.secondary = r.call(ctx, r.adapters.Secondary, symbol) })
	if r.opts.EagerScrape {
		out.scraped = true
		wg.Go(func() { out.scraper = r.call(ctx, r.adapters.Scraper, symbol) })
	}
	wg.Wait()

	return out
}

func (r *Resolver) call(ctx context.Context, a fetcher.Adapter, symbol string) fetcher.Result {
	if a == nil {
		return fetcher.Result{Status: fetcher.StatusUnavailable}
	}
	return fetcher.Call(ctx, a, symbol, r.logger)
}

// priority lists the outcomes in base-selection order
func (o outcomes) priority() []fetcher.Result {
	return []fetcher.Result{o.primary, o.secondary, o.custom, o.scraper}
}

// selectBase picks the highest-priority successful outcome.
// The custom API only outranks the scraper.
func selectBase(o outcomes) (quote.Quote, bool) {
	for _, res := range o.priority() {
		if res.OK() {
			return res.Quote, true
		}
	}
	return quote.Quote{}, false
}

// applyExtendedHours replaces the displayed price with the secondary
// source's pre-market price, or else its post-market price.
// Whichever is populated is assumed to be the freshest; no session or
// timestamp check is made.
func applyExtendedHours(base quote.Quote, secondary fetcher.Result) quote.Quote {
	if !secondary.OK() {
		return base
	}
	switch {
	case quote.Positive(secondary.Quote.PreMarketPrice):
		base.Price = secondary.Quote.PreMarketPrice
		base.PreMarketPrice = secondary.Quote.PreMarketPrice
	case quote.Positive(secondary.Quote.PostMarketPrice):
		base.Price = secondary.Quote.PostMarketPrice
		base.PostMarketPrice = secondary.Quote.PostMarketPrice
	}
	return base
}

// enrichMarketCap fills a missing market cap from the other successful outcomes
func enrichMarketCap(base quote.Quote, o outcomes) quote.Quote {
	if quote.Positive(base.MarketCap) {
		return base
	}
	for _, res := range o.priority() {
		if res.OK() && quote.Positive(res.Quote.MarketCap) {
			base.MarketCap = res.Quote.MarketCap
			return base
		}
	}
	return base
}
