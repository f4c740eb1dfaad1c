package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"marketquotes/internal/quote"
)

// Status is the tag of an adapter outcome
type Status int

const (
	// StatusSuccess means the adapter produced a usable quote
	StatusSuccess Status = iota
	// StatusUnavailable means the adapter is not configured and was skipped
	StatusUnavailable
	// StatusFailure means the adapter was called and produced nothing usable
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "failure"
	}
}

// Result represents the outcome of one adapter call for one symbol.
type Result struct {
	Source quote.Source
	Status Status

	// Quote is only meaningful when Status is StatusSuccess.
	Quote quote.Quote

	// Err is set when Status is StatusFailure.
	Err error
}

// OK reports whether the result carries a usable quote
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Call invokes the adapter and converts whatever happens into a Result.
// Errors and panics never leave this function; failures are logged.
func Call(ctx context.Context, a Adapter, symbol string, logger *slog.Logger) (res Result) {
	if logger == nil {
		logger = slog.Default()
	}
	res.Source = a.Source()

	defer func() {
		if p := recover(); p != nil {
			res = Result{
				Source: res.Source,
				Status: StatusFailure,
				Err:    &FetchError{Type: ErrorTypeUnknown, Message: fmt.Sprintf("adapter panicked: %v", p)},
			}
			logger.Error("adapter panicked", "source", res.Source, "symbol", symbol, "panic", p)
		}
	}()

	q, err := a.FetchQuote(ctx, symbol)
	switch {
	case errors.Is(err, ErrUnavailable):
		logger.Debug("adapter not configured", "source", res.Source, "symbol", symbol)
		res.Status = StatusUnavailable
	case err != nil:
		logger.Warn("adapter failed", "source", res.Source, "symbol", symbol,
			"error_type", TypeOf(err), "error", err.Error())
		res.Status = StatusFailure
		res.Err = err
	case !q.Valid():
		// adapters should never hand back a sentinel price, but the merge
		// policy relies on successful results having one
		res.Status = StatusFailure
		res.Err = NewInvalidSymbolError(symbol)
		logger.Warn("adapter returned no price", "source", res.Source, "symbol", symbol)
	default:
		if q.Source == "" {
			q.Source = res.Source
		}
		if q.Symbol == "" {
			q.Symbol = symbol
		}
		res.Status = StatusSuccess
		res.Quote = q
	}
	return res
}
