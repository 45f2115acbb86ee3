package engine

import (
	"time"

	"github.com/trpleo/matching-engine/internal/book"
	"github.com/trpleo/matching-engine/pkg/num"
)

// BookSnapshot is a point-in-time depth view. Rows are a hint: they need
// not linearize with in-flight submissions, but every row reflects a state
// the book actually held between snapshot start and end.
type BookSnapshot struct {
	Instrument string
	At         time.Time
	Bids       []book.DepthEntry
	Asks       []book.DepthEntry
	// Spread and Mid are derived from the top rows and only meaningful
	// when HasSpread is set (both sides non-empty).
	Spread    num.Dec
	Mid       num.Dec
	HasSpread bool
}

// BestBid returns the top visible bid row.
func (s BookSnapshot) BestBid() (book.DepthEntry, bool) {
	if len(s.Bids) == 0 {
		return book.DepthEntry{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the top visible ask row.
func (s BookSnapshot) BestAsk() (book.DepthEntry, bool) {
	if len(s.Asks) == 0 {
		return book.DepthEntry{}, false
	}
	return s.Asks[0], true
}

// Snapshot collects the top depth levels of both sides without taking the
// engine lock. Iteration runs over copy-on-write clones of the level
// indexes, so it never blocks or is blocked by submissions.
func (e *Engine) Snapshot(depth int) BookSnapshot {
	snap := BookSnapshot{
		Instrument: e.instrument,
		At:         time.Now(),
		Bids:       e.bids.Depth(depth),
		Asks:       e.asks.Depth(depth),
	}
	if len(snap.Bids) > 0 && len(snap.Asks) > 0 {
		bid := snap.Bids[0].Price
		ask := snap.Asks[0].Price
		snap.Spread = ask - bid
		mid, err := (bid + ask).DivInt(2)
		if err == nil {
			snap.Mid = mid
			snap.HasSpread = true
		}
	}
	return snap
}
