// Package rank selects the top momentum bucket from a scored universe.
package rank

import "sort"

// Snapshot holds one rebalance cycle's momentum score per instrument.
// Insertion order is remembered so equal scores rank deterministically
// across runs.
type Snapshot struct {
	symbols []string
	scores  map[string]float64
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{scores: make(map[string]float64)}
}

// Set records a score for symbol. Re-setting a symbol updates the score
// but keeps its original position in the ordering.
func (s *Snapshot) Set(symbol string, score float64) {
	if _, ok := s.scores[symbol]; !ok {
		s.symbols = append(s.symbols, symbol)
	}
	s.scores[symbol] = score
}

// Len returns the number of scored instruments.
func (s *Snapshot) Len() int {
	return len(s.symbols)
}

// TopBucket returns the highest-momentum bucket: with n scored
// instruments split into quantileCount quantiles, the floor(n/quantileCount)
// best performers in ascending score order. It returns nil when there
// are too few instruments to form quantiles.
func (s *Snapshot) TopBucket(quantileCount int) []string {
	n := len(s.symbols)
	if quantileCount <= 0 || n < quantileCount {
		return nil
	}
	bucket := n / quantileCount

	ordered := make([]string, n)
	copy(ordered, s.symbols)
	sort.SliceStable(ordered, func(i, j int) bool {
		return s.scores[ordered[i]] < s.scores[ordered[j]]
	})
	return ordered[n-bucket:]
}
