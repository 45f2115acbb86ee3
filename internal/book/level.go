// Package book implements one side of the limit order book: price levels
// holding FIFO queues of live orders, indexed by a price-ordered btree.
// Writers are serialized by the engine; readers (depth snapshots) are
// wait-free, iterating immutable queue slices published through an atomic
// pointer.
package book

import (
	"sync/atomic"

	"github.com/trpleo/matching-engine/internal/order"
	"github.com/trpleo/matching-engine/pkg/num"
)

// PriceLevel owns the FIFO queue of orders resting at one price. The queue
// slice is immutable once published; Enqueue and Compact swap in a fresh
// slice so concurrent snapshot readers always see a consistent queue.
type PriceLevel struct {
	Price num.Dec

	queue atomic.Pointer[[]*order.Order]
	// visible is a units-denominated estimate of the level's advertised
	// quantity. It may lag in-flight fills; snapshots recompute exact
	// aggregates from the orders themselves.
	visible atomic.Int64
}

func NewPriceLevel(price num.Dec) *PriceLevel {
	lvl := &PriceLevel{Price: price}
	empty := make([]*order.Order, 0, 4)
	lvl.queue.Store(&empty)
	return lvl
}

// Orders returns the queue in FIFO arrival order. The slice must not be
// mutated; tombstoned (terminal) orders may still appear until the next
// compaction and are skipped by matching.
func (lvl *PriceLevel) Orders() []*order.Order {
	return *lvl.queue.Load()
}

// Enqueue appends an order at the back of the queue. Caller must hold the
// book's write serialization.
func (lvl *PriceLevel) Enqueue(o *order.Order) {
	cur := *lvl.queue.Load()
	next := make([]*order.Order, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, o)
	lvl.queue.Store(&next)
	lvl.visible.Add(o.VisibleQuantity().Units())
}

// Compact drops terminal orders from the queue and refreshes the visible
// estimate. Returns the number of live orders left. Caller must hold the
// book's write serialization.
func (lvl *PriceLevel) Compact() int {
	cur := *lvl.queue.Load()
	live := make([]*order.Order, 0, len(cur))
	visible := int64(0)
	for _, o := range cur {
		if !o.Live() {
			continue
		}
		live = append(live, o)
		visible += o.VisibleQuantity().Units()
	}
	lvl.queue.Store(&live)
	lvl.visible.Store(visible)
	return len(live)
}

// Empty reports whether no live order remains on the level.
func (lvl *PriceLevel) Empty() bool {
	for _, o := range lvl.Orders() {
		if o.Live() {
			return false
		}
	}
	return true
}

// VisibleEstimate is the advertised-quantity hint maintained alongside the
// queue. It is refreshed by Compact and may lag the true sum.
func (lvl *PriceLevel) VisibleEstimate() num.Dec {
	return num.FromUnits(lvl.visible.Load())
}

// VisibleQuantity sums the advertised quantity over live orders, reading
// each order's atomic state once.
func (lvl *PriceLevel) VisibleQuantity() (total num.Dec, liveOrders int) {
	for _, o := range lvl.Orders() {
		if !o.Live() {
			continue
		}
		total += o.VisibleQuantity()
		liveOrders++
	}
	return total, liveOrders
}

// LiveQuantity sums the true remaining quantity over live orders,
// regardless of visibility.
func (lvl *PriceLevel) LiveQuantity() num.Dec {
	var total num.Dec
	for _, o := range lvl.Orders() {
		if !o.Live() {
			continue
		}
		total += o.Remaining()
	}
	return total
}
