// Package perf tracks trailing price performance per instrument over a
// fixed lookback window.
package perf

import "errors"

var (
	// ErrNotReady means the window has not been filled to capacity yet.
	ErrNotReady = errors.New("performance window not ready")
	// ErrZeroBase means the oldest price in the window is zero, so a
	// percentage change cannot be computed.
	ErrZeroBase = errors.New("zero base price in performance window")
)

// Tracker keeps the last N daily closes for one instrument in a ring
// buffer and scores its trailing momentum. Updates and scoring are O(1).
type Tracker struct {
	prices []float64
	head   int // next write slot; once full, also the oldest element
	size   int
}

// NewTracker returns a tracker with the given window capacity.
func NewTracker(capacity int) *Tracker {
	if capacity < 2 {
		capacity = 2
	}
	return &Tracker{prices: make([]float64, capacity)}
}

// Update appends the latest close, evicting the oldest once the window
// is full. Non-positive prices are accepted as-is; data quality is the
// upstream feed's problem.
func (t *Tracker) Update(price float64) {
	t.prices[t.head] = price
	t.head = (t.head + 1) % len(t.prices)
	if t.size < len(t.prices) {
		t.size++
	}
}

// Ready reports whether the window has been filled to capacity.
func (t *Tracker) Ready() bool {
	return t.size == len(t.prices)
}

// Len returns the number of closes currently in the window.
func (t *Tracker) Len() int {
	return t.size
}

// Performance returns the percentage change from the oldest to the
// newest close in the window.
func (t *Tracker) Performance() (float64, error) {
	if !t.Ready() {
		return 0, ErrNotReady
	}
	oldest := t.prices[t.head]
	newest := t.prices[(t.head+len(t.prices)-1)%len(t.prices)]
	if oldest == 0 {
		return 0, ErrZeroBase
	}
	return (newest - oldest) / oldest, nil
}

// Window returns the tracked closes oldest-first.
func (t *Tracker) Window() []float64 {
	out := make([]float64, 0, t.size)
	start := 0
	if t.size == len(t.prices) {
		start = t.head
	}
	for i := 0; i < t.size; i++ {
		out = append(out, t.prices[(start+i)%len(t.prices)])
	}
	return out
}
