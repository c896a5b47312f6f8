package domain

import (
	"sort"
	"time"
)

// Slice is the set of bars delivered to the strategy for one scheduling tick.
type Slice struct {
	Time      time.Time
	QuoteBars map[Symbol]*QuoteBar
	Bars      map[Symbol]*TradeBar
}

// NewSlice creates an empty slice for the given time.
func NewSlice(t time.Time) *Slice {
	return &Slice{
		Time:      t,
		QuoteBars: make(map[Symbol]*QuoteBar),
		Bars:      make(map[Symbol]*TradeBar),
	}
}

// Add places the bar in the matching collection. Unknown bar types are ignored.
func (s *Slice) Add(bar Bar) {
	switch b := bar.(type) {
	case *QuoteBar:
		s.QuoteBars[b.Symbol] = b
	case *TradeBar:
		s.Bars[b.Symbol] = b
	}
}

// Contains reports whether any bar for the symbol is present.
func (s *Slice) Contains(sym Symbol) bool {
	if _, ok := s.QuoteBars[sym]; ok {
		return true
	}
	_, ok := s.Bars[sym]
	return ok
}

// QuoteBar looks up the quote bar for a symbol.
func (s *Slice) QuoteBar(sym Symbol) (*QuoteBar, bool) {
	if s == nil || sym.IsZero() {
		return nil, false
	}
	q, ok := s.QuoteBars[sym]
	return q, ok
}

// TradeBar looks up the trade bar for a symbol.
func (s *Slice) TradeBar(sym Symbol) (*TradeBar, bool) {
	if s == nil || sym.IsZero() {
		return nil, false
	}
	b, ok := s.Bars[sym]
	return b, ok
}

// BarSymbols returns the symbols present in Bars, sorted.
func (s *Slice) BarSymbols() []Symbol {
	out := make([]Symbol, 0, len(s.Bars))
	for sym := range s.Bars {
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the total number of bars in the slice.
func (s *Slice) Len() int {
	return len(s.QuoteBars) + len(s.Bars)
}
