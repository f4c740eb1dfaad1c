package overview

import (
	"context"
	"sort"

	"marketquotes/internal/quote"
)

// BatchFetcher resolves a list of symbols into a map of quotes
type BatchFetcher interface {
	FetchQuotes(ctx context.Context, symbols []string) map[string]quote.Quote
}

// Instrument names a symbol shown on the overview
type Instrument struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name,omitempty"`
}

// Layout lists the instruments of each overview section
type Layout struct {
	USIndices []Instrument
	HKIndices []Instrument
	CNIndices []Instrument
	ETFs      []Instrument
	Stocks    []Instrument
	Rates     []Instrument
}

// DefaultLayout is the market overview shown on the dashboard
func DefaultLayout() Layout {
	return Layout{
		USIndices: []Instrument{{"^DJI", "Dow Jones"}, {"^IXIC", "NASDAQ"}, {"^GSPC", "S&P 500"}},
		HKIndices: []Instrument{{"^HSI", "Hang Seng"}, {"HSTECH.HK", "Hang Seng Tech"}},
		CNIndices: []Instrument{{"000001.SS", "SSE Composite"}, {"000300.SS", "CSI 300"}, {"399006.SZ", "ChiNext"}},
		ETFs:      []Instrument{{"SPY", "SPDR S&P 500"}, {"QQQ", "Invesco QQQ"}},
		Stocks: []Instrument{
			{"NVDA", ""}, {"TSM", ""}, {"AAPL", ""}, {"MSFT", ""},
			{"GOOG", ""}, {"AMZN", ""}, {"META", ""}, {"TSLA", ""},
		},
		Rates: []Instrument{{"^TNX", "US 10Y Yield"}},
	}
}

// Symbols returns every symbol of the layout in section order
func (l Layout) Symbols() []string {
	var out []string
	for _, section := range [][]Instrument{l.USIndices, l.HKIndices, l.CNIndices, l.ETFs, l.Stocks, l.Rates} {
		for _, in := range section {
			out = append(out, in.Symbol)
		}
	}
	return out
}

// Entry is one overview row. Price fields are zero when no data was available.
type Entry struct {
	Instrument
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
	MarketCap     float64 `json:"marketCap,omitempty"`
	Available     bool    `json:"available"`
}

// Indices groups index rows by market
type Indices struct {
	US []Entry `json:"us"`
	HK []Entry `json:"hk"`
	CN []Entry `json:"cn"`
}

// Overview is the grouped market snapshot
type Overview struct {
	Indices Indices `json:"indices"`
	ETFs    []Entry `json:"etfs"`
	Stocks  []Entry `json:"stocks"`
	Rates   []Entry `json:"rates"`
}

// Build resolves the whole layout in one batch and groups the results.
// Stocks are ordered by market capitalization, largest first.
func Build(ctx context.Context, fetcher BatchFetcher, layout Layout) Overview {
	quotes := fetcher.FetchQuotes(ctx, layout.Symbols())

	stocks := entries(layout.Stocks, quotes)
	sort.SliceStable(stocks, func(i, j int) bool {
		return stocks[i].MarketCap > stocks[j].MarketCap
	})

	return Overview{
		Indices: Indices{
			US: entries(layout.USIndices, quotes),
			HK: entries(layout.HKIndices, quotes),
			CN: entries(layout.CNIndices, quotes),
		},
		ETFs:   entries(layout.ETFs, quotes),
		Stocks: stocks,
		Rates:  entries(layout.Rates, quotes),
	}
}

// Watchlist maps saved symbols to their quotes in input order,
// substituting zero-valued placeholders for symbols without data.
func Watchlist(ctx context.Context, fetcher BatchFetcher, symbols []string) []Entry {
	instruments := make([]Instrument, 0, len(symbols))
	for _, s := range symbols {
		instruments = append(instruments, Instrument{Symbol: s})
	}
	return entries(instruments, fetcher.FetchQuotes(ctx, symbols))
}

func entries(instruments []Instrument, quotes map[string]quote.Quote) []Entry {
	out := make([]Entry, 0, len(instruments))
	for _, in := range instruments {
		e := Entry{Instrument: in}
		if q, ok := quotes[quote.NormalizeSymbol(in.Symbol)]; ok {
			e.Price = q.Price
			e.Change = q.Change
			e.ChangePercent = q.ChangePercent
			e.MarketCap = q.MarketCap
			e.Available = true
		}
		out = append(out, e)
	}
	return out
}
