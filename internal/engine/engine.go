package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quantfold/pead-engine/internal/broker"
	"github.com/quantfold/pead-engine/internal/config"
	"github.com/quantfold/pead-engine/internal/dates"
	"github.com/quantfold/pead-engine/internal/earnings"
	"github.com/quantfold/pead-engine/internal/lifecycle"
	"github.com/quantfold/pead-engine/internal/perf"
	"github.com/quantfold/pead-engine/internal/rank"
	"github.com/quantfold/pead-engine/internal/types"
)

// Engine orchestrates the post-earnings-announcement-drift strategy:
// momentum tracking and quarterly re-selection, the earnings look-ahead
// that opens positions before announcements, and the daily lifecycle
// tick. All state is owned by the single goroutine consuming the bar
// stream; nothing here needs locking.
type Engine struct {
	params  config.Params
	broker  broker.Broker
	fetcher earnings.Fetcher
	index   *earnings.Index
	manager *lifecycle.Manager

	trackers      map[string]*perf.Tracker
	selected      []string
	selectionFlag bool
	monthsCounter int
	lastDay       time.Time
	liveMode      bool
}

func NewEngine(
	params config.Params,
	b broker.Broker,
	fetcher earnings.Fetcher,
	manager *lifecycle.Manager,
	liveMode bool,
) *Engine {
	return &Engine{
		params:        params,
		broker:        b,
		fetcher:       fetcher,
		index:         earnings.NewIndex(),
		manager:       manager,
		trackers:      make(map[string]*perf.Tracker),
		selectionFlag: true,
		liveMode:      liveMode,
	}
}

// RefreshEarnings downloads and reloads the earnings calendar. A
// malformed feed keeps the previous index; the strategy trades on with
// stale data rather than halting.
func (e *Engine) RefreshEarnings(ctx context.Context) error {
	log.Info().Msg("Loading latest earnings file...")

	raw, err := e.fetcher.Fetch(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Earnings feed fetch failed, keeping previous calendar")
		return err
	}

	if err := e.index.Load(raw); err != nil {
		log.Warn().Err(err).Msg("Malformed earnings feed, keeping previous calendar")
		return err
	}

	log.Info().Int("tickers", len(e.index.Universe())).Msg("Updated earnings universe")
	return nil
}

// OnMarketDay processes one daily snapshot. The passes run in a strict
// order: feed refresh and schedule bookkeeping, price updates, then (if
// flagged) re-selection, then the earnings look-ahead and the lifecycle
// tick, so entry decisions always see scores current as of this close.
func (e *Engine) OnMarketDay(ctx context.Context, day types.MarketDay) error {
	d := dates.Day(day.Date)

	if !e.lastDay.IsZero() {
		if dates.MonthStart(e.lastDay, d) {
			e.onMonthStart()
		}
		if e.liveMode && dates.WeekStart(e.lastDay, d) {
			// Best effort: a failed refresh keeps last week's calendar.
			_ = e.RefreshEarnings(ctx)
		}
	}
	e.lastDay = d

	e.updatePrices(day.Bars)

	if e.selectionFlag {
		e.selectionFlag = false
		e.reselect(ctx, day.Bars)
	}

	e.lookAhead(ctx, d)
	e.manager.Tick(ctx, d)
	return nil
}

// Selected returns the current top momentum bucket.
func (e *Engine) Selected() []string {
	out := make([]string, len(e.selected))
	copy(out, e.selected)
	return out
}

func (e *Engine) onMonthStart() {
	if e.monthsCounter%e.params.RebalancePeriod == 0 {
		e.selectionFlag = true
	}
	e.monthsCounter++
}

func (e *Engine) updatePrices(bars []types.Bar) {
	for _, bar := range bars {
		if tracker, ok := e.trackers[bar.Symbol]; ok {
			tracker.Update(bar.Close)
		}
	}
}

// reselect recomputes the momentum ranking over the earnings-eligible
// universe and keeps the top bucket. Trackers for instruments that left
// the universe are discarded; returning instruments re-warm from broker
// history.
func (e *Engine) reselect(ctx context.Context, bars []types.Bar) {
	eligible := make([]string, 0, len(bars))
	for _, bar := range bars {
		if !bar.HasFundamentals || bar.Market != "usa" {
			continue
		}
		if bar.Close <= e.params.MinPrice || !e.index.Eligible(bar.Symbol) {
			continue
		}
		eligible = append(eligible, bar.Symbol)
	}

	inUniverse := make(map[string]struct{}, len(eligible))
	for _, symbol := range eligible {
		inUniverse[symbol] = struct{}{}
		if _, ok := e.trackers[symbol]; ok {
			continue
		}
		e.warmUp(ctx, symbol)
	}
	for symbol := range e.trackers {
		if _, ok := inUniverse[symbol]; !ok {
			delete(e.trackers, symbol)
		}
	}

	snapshot := rank.NewSnapshot()
	for _, symbol := range eligible {
		tracker := e.trackers[symbol]
		if tracker == nil || !tracker.Ready() {
			continue
		}
		score, err := tracker.Performance()
		if err != nil {
			if errors.Is(err, perf.ErrZeroBase) {
				log.Warn().Str("symbol", symbol).Msg("Zero base price, excluding from ranking")
			}
			continue
		}
		snapshot.Set(symbol, score)
	}

	e.selected = snapshot.TopBucket(e.params.QuantileCount)
	log.Info().
		Int("scored", snapshot.Len()).
		Int("selected", len(e.selected)).
		Msg("Recomputed momentum selection")
}

func (e *Engine) warmUp(ctx context.Context, symbol string) {
	tracker := perf.NewTracker(e.params.LookbackDays)
	e.trackers[symbol] = tracker

	closes, err := e.broker.History(ctx, symbol, e.params.LookbackDays)
	if err != nil || len(closes) == 0 {
		log.Debug().Str("symbol", symbol).Msg("Not enough history yet")
		return
	}
	for _, price := range closes {
		tracker.Update(price)
	}
}

// lookAhead opens long positions for selected instruments announcing
// earnings buy_days_before business days from now.
func (e *Engine) lookAhead(ctx context.Context, day time.Time) {
	earningsDate := dates.AddBusiness(day, e.params.BuyDaysBefore)
	log.Debug().Str("date", earningsDate.Format("2006-01-02")).Msg("Checking for earnings date")

	announcing := e.index.On(earningsDate)
	if len(announcing) == 0 {
		return
	}

	switchOn := dates.AddBusiness(earningsDate, e.params.SwitchDaysAfter)
	liquidateOn := dates.AddBusiness(earningsDate, e.params.SellDaysAfter)

	tickers := make(map[string]struct{}, len(announcing))
	for _, t := range announcing {
		tickers[t] = struct{}{}
	}

	for _, symbol := range e.selected {
		if _, ok := tickers[symbol]; !ok {
			continue
		}
		e.manager.Admit(ctx, symbol, day, switchOn, liquidateOn)
	}
}
