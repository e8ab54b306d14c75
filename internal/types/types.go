package types

import "time"

// Bar is one instrument's entry in a daily universe snapshot.
type Bar struct {
	Symbol          string  `json:"symbol"`
	Close           float64 `json:"close"`
	Market          string  `json:"market"`
	HasFundamentals bool    `json:"has_fundamentals"`
}

// MarketDay is one trading day's snapshot of the tradable universe,
// consumed from the bar stream. Bar order is preserved through selection
// so momentum ranking stays deterministic.
type MarketDay struct {
	Date time.Time `json:"date"`
	Bars []Bar     `json:"bars"`
}

// OrderEvent is published after each broker instruction the lifecycle
// manager issues.
type OrderEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // entry, switch, liquidation
	Symbol    string    `json:"symbol"`
	Weight    float64   `json:"weight"`
	Date      time.Time `json:"date"` // trading day the instruction fired on
	Timestamp time.Time `json:"timestamp"`
}

const (
	OrderEntry       = "entry"
	OrderSwitch      = "switch"
	OrderLiquidation = "liquidation"
)
