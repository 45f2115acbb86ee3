// Package policy implements the allocation strategies that decide how an
// incoming order's quantity is spread across resting orders. A policy only
// proposes fills; the engine commits them atomically and skips any resting
// order that was cancelled in the meantime.
package policy

import (
	"github.com/trpleo/matching-engine/internal/book"
	"github.com/trpleo/matching-engine/internal/common"
	"github.com/trpleo/matching-engine/internal/order"
	"github.com/trpleo/matching-engine/pkg/num"
)

// Fill is one proposed (resting order, quantity, price) allocation. The
// price is always the resting level's price.
type Fill struct {
	Resting  *order.Order
	Quantity num.Dec
	Price    num.Dec
}

// Policy walks the opposite side best-first and proposes fills for the
// incoming order. Implementations are immutable and safe for concurrent
// use; they must not mutate the incoming order or the book. Resting
// remaining quantities are advisory reads, re-checked by the engine under
// the fill CAS.
type Policy interface {
	Name() string
	Match(incoming *order.Order, opposite *book.Side) []Fill
}

// crosses reports whether the incoming order is marketable against a level
// at price. Price priority is absolute, so the first non-crossing level
// ends the walk.
func crosses(incoming *order.Order, price num.Dec) bool {
	if incoming.Kind == common.Market {
		return true
	}
	if incoming.Side == common.Buy {
		return incoming.LimitPrice >= price
	}
	return incoming.LimitPrice <= price
}

// collect drives the best-first level walk shared by every policy.
// allocate receives the level and the incoming demand left for it, and
// returns that level's proposed fills.
func collect(incoming *order.Order, opposite *book.Side,
	allocate func(lvl *book.PriceLevel, q num.Dec) []Fill) []Fill {

	var fills []Fill
	q := incoming.Remaining()
	opposite.WalkBest(func(lvl *book.PriceLevel) bool {
		if q <= 0 || !crosses(incoming, lvl.Price) {
			return false
		}
		proposed := allocate(lvl, q)
		for _, f := range proposed {
			q -= f.Quantity
		}
		fills = append(fills, proposed...)
		return q > 0
	})
	return fills
}

// liveQueue snapshots the level's live orders in FIFO order along with
// their advisory remaining quantities.
func liveQueue(lvl *book.PriceLevel) ([]*order.Order, []num.Dec) {
	queue := lvl.Orders()
	orders := make([]*order.Order, 0, len(queue))
	rems := make([]num.Dec, 0, len(queue))
	for _, o := range queue {
		rem := o.Remaining()
		if !o.Live() || rem <= 0 {
			continue
		}
		orders = append(orders, o)
		rems = append(rems, rem)
	}
	return orders, rems
}

// fillsFor turns per-order allocations into proposals, preserving FIFO
// order and merging each order's allocation into a single fill.
func fillsFor(orders []*order.Order, alloc []num.Dec, price num.Dec) []Fill {
	fills := make([]Fill, 0, len(orders))
	for i, o := range orders {
		if alloc[i] <= 0 {
			continue
		}
		fills = append(fills, Fill{Resting: o, Quantity: alloc[i], Price: price})
	}
	return fills
}
