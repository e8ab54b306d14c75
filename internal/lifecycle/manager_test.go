package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantfold/pead-engine/internal/broker"
	"github.com/quantfold/pead-engine/internal/types"
)

func mustDay(s string) time.Time {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return d
}

// fakeBroker records instructions and tracks invested state per symbol.
type fakeBroker struct {
	quotes   map[string]broker.Quote
	calls    []string
	failNext bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{quotes: make(map[string]broker.Quote)}
}

func (f *fakeBroker) addSymbol(symbol string, price float64, tradable bool) {
	f.quotes[symbol] = broker.Quote{Symbol: symbol, Price: price, Tradable: tradable}
}

func (f *fakeBroker) History(_ context.Context, _ string, _ int) ([]float64, error) {
	return nil, nil
}

func (f *fakeBroker) Quote(_ context.Context, symbol string) (broker.Quote, error) {
	q, ok := f.quotes[symbol]
	if !ok {
		return broker.Quote{}, errors.New("unknown symbol")
	}
	return q, nil
}

func (f *fakeBroker) SetHoldings(_ context.Context, symbol string, weight float64) error {
	if f.failNext {
		f.failNext = false
		return errors.New("gateway unavailable")
	}
	f.calls = append(f.calls, fmt.Sprintf("holdings %s %.2f", symbol, weight))
	q := f.quotes[symbol]
	q.Invested = true
	f.quotes[symbol] = q
	return nil
}

func (f *fakeBroker) Liquidate(_ context.Context, symbol string) error {
	if f.failNext {
		f.failNext = false
		return errors.New("gateway unavailable")
	}
	f.calls = append(f.calls, "liquidate "+symbol)
	q := f.quotes[symbol]
	q.Invested = false
	f.quotes[symbol] = q
	return nil
}

func TestPositionDateOrdering(t *testing.T) {
	_, err := NewPosition("AAPL", mustDay("2026-03-10"), mustDay("2026-03-09"))
	require.Error(t, err)

	p, err := NewPosition("AAPL", mustDay("2026-03-09"), mustDay("2026-03-09"))
	require.NoError(t, err)
	require.Equal(t, StateLong, p.State)
	require.NotEmpty(t, p.ID)
}

func TestManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	b := newFakeBroker()
	b.addSymbol("AAPL", 150, true)
	m := NewManager(b, nil, 30, 0.5)

	var events []types.OrderEvent
	m.OnOrder = func(e types.OrderEvent) { events = append(events, e) }

	entry := mustDay("2026-03-02")
	switchOn := mustDay("2026-03-05")    // D+3
	liquidateOn := mustDay("2026-03-10") // D+8

	require.True(t, m.Admit(ctx, "AAPL", entry, switchOn, liquidateOn))
	require.Equal(t, 1, m.Len())
	require.Equal(t, []string{"holdings AAPL 0.50"}, b.calls)

	// Before the switch date nothing happens.
	m.Tick(ctx, mustDay("2026-03-03"))
	m.Tick(ctx, mustDay("2026-03-04"))
	require.Equal(t, []string{"holdings AAPL 0.50"}, b.calls)

	// On the switch date the position flips short, exactly once.
	m.Tick(ctx, switchOn)
	m.Tick(ctx, mustDay("2026-03-06"))
	require.Equal(t, []string{"holdings AAPL 0.50", "holdings AAPL -0.50"}, b.calls)

	// On the liquidation date the position closes and leaves the set.
	m.Tick(ctx, liquidateOn)
	require.Equal(t, []string{"holdings AAPL 0.50", "holdings AAPL -0.50", "liquidate AAPL"}, b.calls)
	require.Equal(t, 0, m.Len())

	m.Tick(ctx, mustDay("2026-03-11"))
	require.Len(t, b.calls, 3, "no instructions after removal")

	require.Len(t, events, 3)
	require.Equal(t, types.OrderEntry, events[0].Type)
	require.Equal(t, types.OrderSwitch, events[1].Type)
	require.Equal(t, types.OrderLiquidation, events[2].Type)
}

func TestManagerAdmissionCapacity(t *testing.T) {
	ctx := context.Background()
	b := newFakeBroker()
	m := NewManager(b, nil, 2, 0.5)

	switchOn := mustDay("2026-03-05")
	liquidateOn := mustDay("2026-03-10")
	day := mustDay("2026-03-02")

	for _, symbol := range []string{"AAA", "BBB", "CCC"} {
		b.addSymbol(symbol, 10, true)
	}

	require.True(t, m.Admit(ctx, "AAA", day, switchOn, liquidateOn))
	require.True(t, m.Admit(ctx, "BBB", day, switchOn, liquidateOn))
	require.False(t, m.Admit(ctx, "CCC", day, switchOn, liquidateOn), "set at capacity")
	require.Equal(t, 2, m.Len())
}

func TestManagerAdmissionSkips(t *testing.T) {
	ctx := context.Background()
	b := newFakeBroker()
	m := NewManager(b, nil, 30, 0.5)

	day := mustDay("2026-03-02")
	switchOn := mustDay("2026-03-05")
	liquidateOn := mustDay("2026-03-10")

	b.addSymbol("ZERO", 0, true)
	require.False(t, m.Admit(ctx, "ZERO", day, switchOn, liquidateOn), "zero-priced")

	b.addSymbol("HALT", 10, false)
	require.False(t, m.Admit(ctx, "HALT", day, switchOn, liquidateOn), "untradable")

	require.False(t, m.Admit(ctx, "GONE", day, switchOn, liquidateOn), "quote unavailable")

	b.addSymbol("HELD", 10, true)
	q := b.quotes["HELD"]
	q.Invested = true
	b.quotes["HELD"] = q
	require.False(t, m.Admit(ctx, "HELD", day, switchOn, liquidateOn), "already invested")

	require.Equal(t, 0, m.Len())
	require.Empty(t, b.calls)
}

func TestManagerRetriesFailedSwitch(t *testing.T) {
	ctx := context.Background()
	b := newFakeBroker()
	b.addSymbol("AAPL", 150, true)
	m := NewManager(b, nil, 30, 0.5)

	require.True(t, m.Admit(ctx, "AAPL", mustDay("2026-03-02"), mustDay("2026-03-05"), mustDay("2026-03-10")))

	b.failNext = true
	m.Tick(ctx, mustDay("2026-03-05"))
	require.Equal(t, []string{"holdings AAPL 0.50"}, b.calls, "failed flip issues nothing")
	require.Equal(t, 1, m.Len())

	// Next tick retries the flip.
	m.Tick(ctx, mustDay("2026-03-06"))
	require.Equal(t, []string{"holdings AAPL 0.50", "holdings AAPL -0.50"}, b.calls)
}

// fakeJournal is an in-memory Journal.
type fakeJournal struct {
	saved map[string]*Position
}

func (j *fakeJournal) SavePosition(_ context.Context, p *Position) error {
	cp := *p
	j.saved[p.ID] = &cp
	return nil
}

func (j *fakeJournal) UpdateState(_ context.Context, id string, state State) error {
	if p, ok := j.saved[id]; ok {
		p.State = state
	}
	return nil
}

func (j *fakeJournal) DeletePosition(_ context.Context, id string) error {
	delete(j.saved, id)
	return nil
}

func (j *fakeJournal) OpenPositions(_ context.Context) ([]*Position, error) {
	out := make([]*Position, 0, len(j.saved))
	for _, p := range j.saved {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func TestManagerJournalRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := newFakeBroker()
	b.addSymbol("AAPL", 150, true)
	journal := &fakeJournal{saved: make(map[string]*Position)}

	m := NewManager(b, journal, 30, 0.5)
	require.True(t, m.Admit(ctx, "AAPL", mustDay("2026-03-02"), mustDay("2026-03-05"), mustDay("2026-03-10")))
	m.Tick(ctx, mustDay("2026-03-05"))

	// A fresh manager resumes the shorted position and liquidates it.
	restored := NewManager(b, journal, 30, 0.5)
	require.NoError(t, restored.Restore(ctx))
	require.Equal(t, 1, restored.Len())

	restored.Tick(ctx, mustDay("2026-03-06"))
	require.Len(t, b.calls, 2, "restored short position does not flip again")

	restored.Tick(ctx, mustDay("2026-03-10"))
	require.Equal(t, "liquidate AAPL", b.calls[len(b.calls)-1])
	require.Empty(t, journal.saved)
}
