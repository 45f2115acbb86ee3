package book

import (
	"github.com/tidwall/btree"

	"github.com/trpleo/matching-engine/internal/common"
	"github.com/trpleo/matching-engine/internal/order"
	"github.com/trpleo/matching-engine/pkg/num"
)

type priceLevels = btree.BTreeG[*PriceLevel]

// Side is one price-ordered half of the book. The btree's less function is
// chosen per side so that Min is always the best price: ascending for asks,
// descending for bids.
type Side struct {
	side   common.Side
	levels *priceLevels
}

func NewSide(side common.Side) *Side {
	var less func(a, b *PriceLevel) bool
	switch side {
	case common.Buy:
		// Sorted greatest first.
		less = func(a, b *PriceLevel) bool { return a.Price > b.Price }
	default:
		// Sorted least first.
		less = func(a, b *PriceLevel) bool { return a.Price < b.Price }
	}
	return &Side{
		side:   side,
		levels: btree.NewBTreeG(less),
	}
}

func (s *Side) Side() common.Side { return s.side }

// Best returns the level at the best price, if any. Min accounts for bids
// and asks being in inverse order, based on their comparison method.
func (s *Side) Best() (*PriceLevel, bool) {
	return s.levels.Min()
}

// BestPrice returns the best price over levels with at least one live order.
func (s *Side) BestPrice() (num.Dec, bool) {
	var best num.Dec
	found := false
	s.levels.Scan(func(lvl *PriceLevel) bool {
		if lvl.Empty() {
			return true
		}
		best = lvl.Price
		found = true
		return false
	})
	return best, found
}

// Level looks up the level resting at price. The comparator only accounts
// for prices, so a probe level works for the search.
func (s *Side) Level(price num.Dec) (*PriceLevel, bool) {
	return s.levels.GetMut(&PriceLevel{Price: price})
}

// GetOrCreate returns the level at price, creating it if absent. Caller
// must hold the book's write serialization.
func (s *Side) GetOrCreate(price num.Dec) *PriceLevel {
	if lvl, ok := s.levels.GetMut(&PriceLevel{Price: price}); ok {
		return lvl
	}
	lvl := NewPriceLevel(price)
	s.levels.Set(lvl)
	return lvl
}

// Enqueue rests an order on its price level, creating the level if needed.
func (s *Side) Enqueue(o *order.Order) *PriceLevel {
	lvl := s.GetOrCreate(o.LimitPrice)
	lvl.Enqueue(o)
	return lvl
}

// Remove deletes a level from the index. Caller must hold the book's write
// serialization.
func (s *Side) Remove(lvl *PriceLevel) {
	s.levels.Delete(lvl)
}

// WalkBest visits levels starting from the best price until fn returns
// false.
func (s *Side) WalkBest(fn func(lvl *PriceLevel) bool) {
	s.levels.Scan(fn)
}

// Levels returns the number of price levels currently indexed, including
// levels awaiting compaction.
func (s *Side) Levels() int {
	return s.levels.Len()
}

// Sweep compacts every level and removes the empty ones. Returns the number
// of levels removed. Caller must hold the book's write serialization.
func (s *Side) Sweep() int {
	var empty []*PriceLevel
	s.levels.ScanMut(func(lvl *PriceLevel) bool {
		if lvl.Compact() == 0 {
			empty = append(empty, lvl)
		}
		return true
	})
	for _, lvl := range empty {
		s.levels.Delete(lvl)
	}
	return len(empty)
}

// DepthEntry is one (price, visible quantity, order count) row of a depth
// snapshot.
type DepthEntry struct {
	Price    num.Dec
	Quantity num.Dec
	Orders   int
}

// Depth collects up to k best levels with non-zero advertised quantity.
// It iterates a copy-on-write clone of the level index, so it never blocks
// writers and tolerates concurrent insert/remove.
func (s *Side) Depth(k int) []DepthEntry {
	out := make([]DepthEntry, 0, k)
	if k <= 0 {
		return out
	}
	snap := s.levels.Copy()
	snap.Scan(func(lvl *PriceLevel) bool {
		qty, live := lvl.VisibleQuantity()
		if live == 0 || qty == 0 {
			return true
		}
		out = append(out, DepthEntry{Price: lvl.Price, Quantity: qty, Orders: live})
		return len(out) < k
	})
	return out
}
