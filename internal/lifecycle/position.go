// Package lifecycle tracks open earnings positions from their long entry
// through the announcement-day short flip to liquidation.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State of a managed position. A position enters long and is flipped to
// short exactly once; the state only advances after the matching broker
// instruction succeeds, so a failed flip is retried on the next tick.
type State string

const (
	StateLong  State = "long"
	StateShort State = "short"
)

// Position tracks one earnings trade. SwitchOn and LiquidateOn are
// calendar dates derived from the announcement date at admission time.
type Position struct {
	ID          string
	Symbol      string
	SwitchOn    time.Time
	LiquidateOn time.Time
	State       State
}

// NewPosition creates a long position with its transition dates. The
// switch date must not fall after the liquidation date.
func NewPosition(symbol string, switchOn, liquidateOn time.Time) (*Position, error) {
	if liquidateOn.Before(switchOn) {
		return nil, fmt.Errorf("switch date %s after liquidation date %s for %s",
			switchOn.Format("2006-01-02"), liquidateOn.Format("2006-01-02"), symbol)
	}
	return &Position{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		SwitchOn:    switchOn,
		LiquidateOn: liquidateOn,
		State:       StateLong,
	}, nil
}
