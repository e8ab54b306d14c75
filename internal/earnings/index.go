// Package earnings maintains the announcement-date calendar derived from
// the external earnings feed.
package earnings

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// FeedFormatError reports a malformed earnings feed. The index keeps its
// previous contents whenever one is returned.
type FeedFormatError struct {
	Record int
	Reason string
}

func (e *FeedFormatError) Error() string {
	return fmt.Sprintf("earnings feed record %d: %s", e.Record, e.Reason)
}

type feedRecord struct {
	Date   *string     `json:"date"`
	Stocks []feedStock `json:"stocks"`
}

type feedStock struct {
	Ticker string `json:"ticker"`
}

// Index maps announcement dates to the tickers reporting on them, plus
// the union of all tickers across dates. Rebuilt wholesale on each load.
type Index struct {
	byDate   map[time.Time][]string
	universe map[string]struct{}
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		byDate:   make(map[time.Time][]string),
		universe: make(map[string]struct{}),
	}
}

// Load rebuilds the index from the raw feed JSON: a list of
// {date, stocks:[{ticker,...},...]} records. The swap is atomic: any
// malformed record fails the whole load with *FeedFormatError and the
// previous contents stay in place.
func (x *Index) Load(raw []byte) error {
	var records []feedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return &FeedFormatError{Reason: err.Error()}
	}

	byDate := make(map[time.Time][]string, len(records))
	universe := make(map[string]struct{})
	for i, rec := range records {
		if rec.Date == nil {
			return &FeedFormatError{Record: i, Reason: "missing date"}
		}
		date, err := time.ParseInLocation("2006-01-02", *rec.Date, time.UTC)
		if err != nil {
			return &FeedFormatError{Record: i, Reason: fmt.Sprintf("unparseable date %q", *rec.Date)}
		}
		if rec.Stocks == nil {
			return &FeedFormatError{Record: i, Reason: "missing stocks"}
		}
		for _, stock := range rec.Stocks {
			byDate[date] = append(byDate[date], stock.Ticker)
			universe[stock.Ticker] = struct{}{}
		}
		if _, ok := byDate[date]; !ok {
			byDate[date] = []string{}
		}
	}

	x.byDate = byDate
	x.universe = universe
	return nil
}

// Dates returns all known announcement dates in ascending order.
func (x *Index) Dates() []time.Time {
	out := make([]time.Time, 0, len(x.byDate))
	for d := range x.byDate {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// On returns the tickers announcing on date, empty when the date is
// unknown.
func (x *Index) On(date time.Time) []string {
	tickers := x.byDate[date]
	out := make([]string, len(tickers))
	copy(out, tickers)
	return out
}

// Eligible reports whether ticker appears on any announcement date.
func (x *Index) Eligible(ticker string) bool {
	_, ok := x.universe[ticker]
	return ok
}

// Universe returns the union of tickers across all announcement dates,
// sorted for reproducibility.
func (x *Index) Universe() []string {
	out := make([]string, 0, len(x.universe))
	for t := range x.universe {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
