// Package broker is the engine's view of the brokerage gateway: price
// history, quotes and weight-targeted order placement.
package broker

import "context"

// Quote is the gateway's current view of one instrument.
type Quote struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Tradable bool    `json:"tradable"`
	Invested bool    `json:"invested"`
}

// Broker is the slice of gateway capability the strategy depends on.
type Broker interface {
	// History returns up to days daily closes for symbol, oldest first.
	History(ctx context.Context, symbol string, days int) ([]float64, error)
	Quote(ctx context.Context, symbol string) (Quote, error)
	// SetHoldings targets a portfolio-weight fraction for symbol;
	// negative weights short.
	SetHoldings(ctx context.Context, symbol string, weight float64) error
	// Liquidate closes any open position in symbol.
	Liquidate(ctx context.Context, symbol string) error
}
