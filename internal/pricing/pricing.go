// Package pricing resolves asset quotes from the price oracle and computes
// cross-asset exchange amounts.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Source tags how a quote was obtained, so callers can decide whether to
// warn the user about unlisted assets.
type Source string

const (
	// SourceListed means the oracle returned a real quote for the asset.
	SourceListed Source = "listed"
	// SourceFallback means the oracle answered but does not list the asset;
	// the documented default quote was substituted.
	SourceFallback Source = "fallback"
)

var (
	// ErrQuoteUnavailable indicates the oracle call itself failed.
	ErrQuoteUnavailable = errors.New("quote unavailable")
	// ErrZeroPrice indicates a cross amount was requested against a zero price.
	ErrZeroPrice = errors.New("quote price is zero")
)

// Quote is price, scale, and display metadata for one asset at a point in time.
type Quote struct {
	AssetID  string
	PriceUSD decimal.Decimal
	Decimals int32
	Symbol   string
	Source   Source
}

// Fallback quote substituted for assets the oracle does not list.
var fallbackPrice = decimal.RequireFromString("0.1")

const (
	fallbackDecimals = 6
	fallbackSymbol   = "TEST"
)

// FallbackQuote returns the default quote used when the oracle answers but
// does not know the asset.
func FallbackQuote(assetID string) Quote {
	return Quote{
		AssetID:  assetID,
		PriceUSD: fallbackPrice,
		Decimals: fallbackDecimals,
		Symbol:   fallbackSymbol,
		Source:   SourceFallback,
	}
}

// CrossAmount converts an amount denominated in the "from" asset into the
// "to" asset: amount * from.Price / to.Price. No rounding is applied here;
// truncation to base units happens only at the sequencer boundary.
func CrossAmount(from, to Quote, amount decimal.Decimal) (decimal.Decimal, error) {
	if to.PriceUSD.IsZero() {
		return decimal.Zero, ErrZeroPrice
	}

	return amount.Mul(from.PriceUSD).Div(to.PriceUSD), nil
}
