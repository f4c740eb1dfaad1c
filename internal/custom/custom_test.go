package custom

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"marketquotes/internal/fetcher"
)

func jsonHandler(t *testing.T, body string, check func(r *http.Request)) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}
}

func TestQuoteFetcher_URL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		apiKey   string
		symbol   string
		want     string
	}{
		{"symbol placeholder", "https://q.example/v1/{symbol}", "", "AAPL", "https://q.example/v1/AAPL"},
		{"ticker placeholder with key", "https://q.example/v1/quote?t={ticker}", "k1", "MSFT", "https://q.example/v1/quote?t=MSFT&apikey=k1"},
		{"key appended with question mark", "https://q.example/{symbol}", "k2", "NVDA", "https://q.example/NVDA?apikey=k2"},
		{"key already present", "https://q.example/{symbol}?token=k3", "k3", "NVDA", "https://q.example/NVDA?token=k3"},
		{"index symbol escaped", "https://q.example/{symbol}", "", "^GSPC", "https://q.example/%5EGSPC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewQuoteFetcher(tt.template, tt.apiKey, 0)
			if got := f.URL(tt.symbol); got != tt.want {
				t.Errorf("URL(%q) = %q, want %q", tt.symbol, got, tt.want)
			}
		})
	}
}

func TestQuoteFetcher_FetchQuote_NotConfigured(t *testing.T) {
	f := NewQuoteFetcher("", "key", 0)

	_, err := f.FetchQuote(context.Background(), "AAPL")
	if err != fetcher.ErrUnavailable {
		t.Fatalf("FetchQuote() error = %v, want ErrUnavailable", err)
	}
}

func TestQuoteFetcher_FetchQuote_DerivesChangeFromPreviousClose(t *testing.T) {
	var gotKey atomic.Value
	server := httptest.NewServer(jsonHandler(t, `{"last": "110.00", "previous_close": 100}`, func(r *http.Request) {
		gotKey.Store(r.URL.Query().Get("apikey"))
	}))
	defer server.Close()

	f := NewQuoteFetcher(server.URL+"/quote/{symbol}", "secret", 0)

	q, err := f.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchQuote() returned unexpected error: %v", err)
	}

	if q.Price != 110 {
		t.Errorf("Price = %.2f, want 110.00", q.Price)
	}
	if q.Change != 10 {
		t.Errorf("Change = %.2f, want 10.00", q.Change)
	}
	if math.Abs(q.ChangePercent-10) > 1e-9 {
		t.Errorf("ChangePercent = %.4f, want 10.0", q.ChangePercent)
	}
	if q.Source != "custom" {
		t.Errorf("Source = %q, want custom", q.Source)
	}
	if got := gotKey.Load(); got != "secret" {
		t.Errorf("apikey = %v, want secret", got)
	}
}

func TestQuoteFetcher_FetchQuote_ExplicitChangeFields(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, `{"price": 0, "close": 42.5, "change": -0.5, "change_percent": -1.16}`, nil))
	defer server.Close()

	f := NewQuoteFetcher(server.URL+"/{ticker}", "", 0)

	q, err := f.FetchQuote(context.Background(), "T")
	if err != nil {
		t.Fatalf("FetchQuote() returned unexpected error: %v", err)
	}
	if q.Price != 42.5 || q.Change != -0.5 || q.ChangePercent != -1.16 {
		t.Errorf("FetchQuote() = %+v, want price 42.5 change -0.5 percent -1.16", q)
	}
}

func TestQuoteFetcher_FetchQuote_NoPreviousCloseIsFlat(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, `{"current": 12.34}`, nil))
	defer server.Close()

	q, err := NewQuoteFetcher(server.URL+"/{symbol}", "", 0).FetchQuote(context.Background(), "F")
	if err != nil {
		t.Fatalf("FetchQuote() returned unexpected error: %v", err)
	}
	if q.Change != 0 || q.ChangePercent != 0 {
		t.Errorf("Change = %.2f, ChangePercent = %.2f, want 0, 0", q.Change, q.ChangePercent)
	}
}

func TestQuoteFetcher_FetchQuote_ZeroPriceIsInvalidSymbol(t *testing.T) {
	server := httptest.NewServer(jsonHandler(t, `{"price": 0}`, nil))
	defer server.Close()

	_, err := NewQuoteFetcher(server.URL+"/{symbol}", "", 0).FetchQuote(context.Background(), "BOGUS")
	if got := fetcher.TypeOf(err); got != fetcher.ErrorTypeInvalidSymbol {
		t.Errorf("error type = %q, want %q (err: %v)", got, fetcher.ErrorTypeInvalidSymbol, err)
	}
}

func TestQuoteFetcher_FetchQuote_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewQuoteFetcher(server.URL+"/{symbol}", "", 0).FetchQuote(context.Background(), "AAPL")
	if got := fetcher.TypeOf(err); got != fetcher.ErrorTypeRateLimit {
		t.Errorf("error type = %q, want %q", got, fetcher.ErrorTypeRateLimit)
	}
}

func TestQuoteFetcher_FetchQuote_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewQuoteFetcher(server.URL+"/{symbol}", "", 0).FetchQuote(ctx, "AAPL")
	if err == nil {
		t.Error("FetchQuote() expected error for cancelled context, got nil")
	}
}
