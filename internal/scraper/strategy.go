package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"marketquotes/internal/fetcher"
	"marketquotes/internal/quote"
)

var (
	nonNumeric        = regexp.MustCompile(`[^0-9.]`)
	signedDecimal     = regexp.MustCompile(`[+-]?[0-9,]*\.?[0-9]+`)
	plainDecimal      = regexp.MustCompile(`[0-9,]+\.[0-9]+`)
	changeBeforeParen = regexp.MustCompile(`([+-]?[0-9,]+\.[0-9]+)\s*\(`)
)

// Strategy turns a finance page into a quote.
// Implementations own the page layout knowledge so it can change without
// touching the resolver.
type Strategy interface {
	// Path returns the page path for symbol, relative to the quote base URL.
	Path(symbol string) string

	// Extract parses the page. It fails when no positive price is found.
	Extract(symbol string, doc *goquery.Document) (quote.Quote, error)
}

// Correction rescales instruments whose page reports a scaled value
type Correction struct {
	Above   float64
	Divisor float64
}

// GoogleFinance extracts quotes from Google Finance quote pages
type GoogleFinance struct {
	// PriceSelector selects the headline price heading.
	PriceSelector string
	// BadgeClass is a class substring identifying the percentage badge.
	BadgeClass string
	// ChangePattern captures the signed change preceding "(" in the badge container.
	ChangePattern *regexp.Regexp
	// ExtendedLabels mark the extended-hours price block.
	ExtendedLabels []string
	// DefaultExchange is appended to symbols missing from Paths.
	DefaultExchange string
	// Paths remaps symbols whose page path differs from SYMBOL:EXCHANGE.
	Paths map[string]string
	// Corrections holds per-symbol unit corrections.
	Corrections map[string]Correction
}

// NewGoogleFinance returns the strategy for the current Google Finance layout
func NewGoogleFinance() *GoogleFinance {
	return &GoogleFinance{
		PriceSelector:   ".YMlKec.fxKbKc",
		BadgeClass:      "JwB6zf",
		ChangePattern:   changeBeforeParen,
		ExtendedLabels:  []string{"Pre-market", "After hours"},
		DefaultExchange: "NASDAQ",
		Paths: map[string]string{
			"^GSPC": ".INX:INDEXSP",
			"^DJI":  ".DJI:INDEXDJX",
			"^IXIC": ".IXIC:INDEXNASDAQ",
			"^RUT":  "RUT:INDEXRUSSELL",
			"^VIX":  "VIX:INDEXCBOE",
			"^TNX":  "TNX:INDEXCBOE",
		},
		// the CBOE 10-year index is quoted at ten times the yield
		Corrections: map[string]Correction{
			"^TNX": {Above: 20, Divisor: 10},
		},
	}
}

// Path implements Strategy
func (g *GoogleFinance) Path(symbol string) string {
	if p, ok := g.Paths[symbol]; ok {
		return p
	}
	return symbol + ":" + g.DefaultExchange
}

// Extract implements Strategy
func (g *GoogleFinance) Extract(symbol string, doc *goquery.Document) (quote.Quote, error) {
	q := quote.Quote{
		Symbol: symbol,
		Source: quote.SourceScraper,
	}

	q.Price = parseStripped(doc.Find(g.PriceSelector).First().Text())
	q.Change, q.ChangePercent = g.extractChange(doc)

	if extended := g.extractExtended(doc); quote.Positive(extended) {
		q.Price = extended
	}

	if c, ok := g.Corrections[symbol]; ok && c.Divisor != 0 && q.Price > c.Above {
		q.Price /= c.Divisor
		q.Change /= c.Divisor
	}

	if !quote.Positive(q.Price) {
		return quote.Quote{}, fetcher.NewValidationError("no price found on page for " + symbol)
	}
	return q, nil
}

func (g *GoogleFinance) extractChange(doc *goquery.Document) (change, percent float64) {
	badge := doc.Find("div, span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		return strings.Contains(class, g.BadgeClass)
	}).First()
	if badge.Length() == 0 {
		return 0, 0
	}

	percent = parseDecimal(signedDecimal.FindString(badge.Text()))

	container := badge.Parent().Parent().Text()
	if m := g.ChangePattern.FindStringSubmatch(container); len(m) > 1 {
		change = parseDecimal(m[1])
	}

	// the badge conveys direction with an icon, so its text is usually unsigned
	if change < 0 && percent > 0 {
		percent = -percent
	}
	return change, percent
}

func (g *GoogleFinance) extractExtended(doc *goquery.Document) float64 {
	label := doc.Find("div, span").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if !g.mentionsExtended(s.Text()) {
			return false
		}
		// innermost match only; outer wrappers contain the whole page
		return s.Find("div, span").FilterFunction(func(_ int, c *goquery.Selection) bool {
			return g.mentionsExtended(c.Text())
		}).Length() == 0
	}).First()
	if label.Length() == 0 {
		return 0
	}

	return parseDecimal(plainDecimal.FindString(label.Parent().Text()))
}

func (g *GoogleFinance) mentionsExtended(text string) bool {
	for _, l := range g.ExtendedLabels {
		if strings.Contains(text, l) {
			return true
		}
	}
	return false
}

func parseStripped(s string) float64 {
	v, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(s, ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseDecimal(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
