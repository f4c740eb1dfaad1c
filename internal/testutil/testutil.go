package testutil

import (
	"context"
	"sync/atomic"

	"marketquotes/internal/quote"
)

// StubAdapter is a function-backed implementation of fetcher.Adapter for testing
type StubAdapter struct {
	Src       quote.Source
	FetchFunc func(ctx context.Context, symbol string) (quote.Quote, error)

	calls atomic.Int64
}

// Source implements fetcher.Adapter
func (s *StubAdapter) Source() quote.Source {
	if s.Src == "" {
		return "stub"
	}
	return s.Src
}

// FetchQuote implements fetcher.Adapter
func (s *StubAdapter) FetchQuote(ctx context.Context, symbol string) (quote.Quote, error) {
	s.calls.Add(1)
	if s.FetchFunc != nil {
		return s.FetchFunc(ctx, symbol)
	}
	return quote.Quote{}, nil
}

// Calls returns how many times FetchQuote was invoked
func (s *StubAdapter) Calls() int {
	return int(s.calls.Load())
}

// NewStubAdapter creates a stub that answers every symbol with the same quote and error
func NewStubAdapter(src quote.Source, q quote.Quote, err error) *StubAdapter {
	return &StubAdapter{
		Src: src,
		FetchFunc: func(ctx context.Context, symbol string) (quote.Quote, error) {
			return q, err
		},
	}
}

// NewSymbolAdapter creates a stub that answers from a per-symbol table.
// Symbols missing from the table get the fallback error.
func NewSymbolAdapter(src quote.Source, quotes map[string]quote.Quote, missing error) *StubAdapter {
	return &StubAdapter{
		Src: src,
		FetchFunc: func(ctx context.Context, symbol string) (quote.Quote, error) {
			q, ok := quotes[symbol]
			if !ok {
				return quote.Quote{}, missing
			}
			return q, nil
		},
	}
}
