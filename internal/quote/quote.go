package quote

import (
	"math"
	"strings"
	"unicode"
)

// Source identifies which adapter produced a quote
type Source string

const (
	// SourceCustom is the operator-configured structured API
	SourceCustom Source = "custom"
	// SourceFinnhub is the primary structured quote-and-profile API
	SourceFinnhub Source = "finnhub"
	// SourceYahoo is the secondary, extended-hours aware quote API
	SourceYahoo Source = "yahoo"
	// SourceScraper is the HTML scraping fallback
	SourceScraper Source = "scraper"
	// SourceStatic marks a configured last-known value
	SourceStatic Source = "static"
)

// Quote is a single price snapshot for one symbol.
// Optional fields are zero when the provider did not report them.
type Quote struct {
	Symbol          string  `json:"symbol"`
	Price           float64 `json:"price"`
	Change          float64 `json:"change"`
	ChangePercent   float64 `json:"changePercent"`
	MarketCap       float64 `json:"marketCap,omitempty"`
	PreMarketPrice  float64 `json:"preMarketPrice,omitempty"`
	PostMarketPrice float64 `json:"postMarketPrice,omitempty"`
	Source          Source  `json:"source"`
}

// Valid reports whether the quote carries a usable price.
// Providers use 0 as a not-found sentinel, so only positive prices count.
func (q Quote) Valid() bool {
	return Positive(q.Price)
}

// Positive reports whether v is a finite number greater than zero
func Positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// NormalizeSymbol trims and upper-cases a ticker for use as a map key
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// IsIndex reports whether the symbol follows the index naming convention,
// i.e. it starts with a character that is neither a letter nor a digit
// (^GSPC, .INX).
func IsIndex(symbol string) bool {
	s := strings.TrimSpace(symbol)
	if s == "" {
		return false
	}
	r := []rune(s)[0]
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
