package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/quantfold/pead-engine/internal/broker"
	"github.com/quantfold/pead-engine/internal/types"
)

// Journal persists managed positions across restarts. Journal failures
// never stop trading; they are logged and the in-memory set stays
// authoritative.
type Journal interface {
	SavePosition(ctx context.Context, p *Position) error
	UpdateState(ctx context.Context, id string, state State) error
	DeletePosition(ctx context.Context, id string) error
	OpenPositions(ctx context.Context) ([]*Position, error)
}

// Manager owns the managed-position set, capped at a fixed capacity, and
// drives every position through its date-based transitions.
type Manager struct {
	broker     broker.Broker
	journal    Journal // may be nil
	capacity   int
	slotWeight float64
	positions  []*Position

	// OnOrder, when set, is called after every successful broker
	// instruction.
	OnOrder func(types.OrderEvent)
}

func NewManager(b broker.Broker, journal Journal, capacity int, slotWeight float64) *Manager {
	return &Manager{
		broker:     b,
		journal:    journal,
		capacity:   capacity,
		slotWeight: slotWeight,
	}
}

// Len returns the number of positions under management.
func (m *Manager) Len() int {
	return len(m.positions)
}

// Restore reloads open positions from the journal after a restart.
func (m *Manager) Restore(ctx context.Context) error {
	if m.journal == nil {
		return nil
	}
	positions, err := m.journal.OpenPositions(ctx)
	if err != nil {
		return err
	}
	m.positions = positions
	log.Info().Int("count", len(positions)).Msg("Restored managed positions")
	return nil
}

// Admit opens a long entry for symbol ahead of its earnings announcement.
// It returns false when the managed set is full, the instrument is
// untradable, zero-priced or already held, or the entry order fails.
// Rejected candidates are not retried for that announcement.
func (m *Manager) Admit(ctx context.Context, symbol string, day, switchOn, liquidateOn time.Time) bool {
	if len(m.positions) >= m.capacity {
		log.Debug().Str("symbol", symbol).Int("capacity", m.capacity).Msg("Managed set full, dropping candidate")
		return false
	}

	quote, err := m.broker.Quote(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Quote unavailable, skipping candidate")
		return false
	}
	if quote.Invested || quote.Price == 0 || !quote.Tradable {
		return false
	}

	position, err := NewPosition(symbol, switchOn, liquidateOn)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("Rejecting position with inverted dates")
		return false
	}

	if err := m.broker.SetHoldings(ctx, symbol, m.slotWeight); err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("Failed to place entry order")
		return false
	}

	m.positions = append(m.positions, position)
	m.journalSave(ctx, position)
	m.notify(types.OrderEvent{
		Type:   types.OrderEntry,
		Symbol: symbol,
		Weight: m.slotWeight,
		Date:   day,
	})

	log.Info().
		Str("symbol", symbol).
		Str("switch", switchOn.Format("2006-01-02")).
		Str("liquidation", liquidateOn.Format("2006-01-02")).
		Msg("Opened earnings position")

	return true
}

// Tick evaluates every managed position against the current date:
// matured longs are flipped to shorts with the negated slot weight, and
// expired positions are liquidated and removed. A failed instruction
// leaves the position untouched so the next tick retries it.
func (m *Manager) Tick(ctx context.Context, day time.Time) {
	kept := m.positions[:0]
	for _, p := range m.positions {
		switch {
		case !day.Before(p.LiquidateOn):
			if err := m.broker.Liquidate(ctx, p.Symbol); err != nil {
				log.Error().Err(err).Str("symbol", p.Symbol).Msg("Failed to liquidate position")
				kept = append(kept, p)
				continue
			}
			m.journalDelete(ctx, p)
			m.notify(types.OrderEvent{Type: types.OrderLiquidation, Symbol: p.Symbol, Date: day})
			log.Info().Str("symbol", p.Symbol).Msg("Liquidated earnings position")

		case !day.Before(p.SwitchOn) && p.State == StateLong:
			if err := m.broker.SetHoldings(ctx, p.Symbol, -m.slotWeight); err != nil {
				log.Error().Err(err).Str("symbol", p.Symbol).Msg("Failed to switch position to short")
				kept = append(kept, p)
				continue
			}
			p.State = StateShort
			m.journalUpdate(ctx, p)
			m.notify(types.OrderEvent{Type: types.OrderSwitch, Symbol: p.Symbol, Weight: -m.slotWeight, Date: day})
			log.Info().Str("symbol", p.Symbol).Msg("Switched earnings position to short")
			kept = append(kept, p)

		default:
			kept = append(kept, p)
		}
	}
	m.positions = kept
}

func (m *Manager) notify(event types.OrderEvent) {
	if m.OnOrder == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	m.OnOrder(event)
}

func (m *Manager) journalSave(ctx context.Context, p *Position) {
	if m.journal == nil {
		return
	}
	if err := m.journal.SavePosition(ctx, p); err != nil {
		log.Error().Err(err).Str("symbol", p.Symbol).Msg("Failed to journal position")
	}
}

func (m *Manager) journalUpdate(ctx context.Context, p *Position) {
	if m.journal == nil {
		return
	}
	if err := m.journal.UpdateState(ctx, p.ID, p.State); err != nil {
		log.Error().Err(err).Str("symbol", p.Symbol).Msg("Failed to journal state change")
	}
}

func (m *Manager) journalDelete(ctx context.Context, p *Position) {
	if m.journal == nil {
		return
	}
	if err := m.journal.DeletePosition(ctx, p.ID); err != nil {
		log.Error().Err(err).Str("symbol", p.Symbol).Msg("Failed to remove journaled position")
	}
}
