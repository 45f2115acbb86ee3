package policy

import (
	"github.com/trpleo/matching-engine/internal/book"
	"github.com/trpleo/matching-engine/internal/order"
	"github.com/trpleo/matching-engine/pkg/num"
)

// PriceTime is the classic FIFO allocation: within a level, resting orders
// are served to exhaustion in arrival order.
type PriceTime struct{}

func NewPriceTime() PriceTime { return PriceTime{} }

func (PriceTime) Name() string { return "price_time" }

func (PriceTime) Match(incoming *order.Order, opposite *book.Side) []Fill {
	return collect(incoming, opposite, func(lvl *book.PriceLevel, q num.Dec) []Fill {
		orders, rems := liveQueue(lvl)
		alloc := fifoAllocate(rems, q, 0)
		return fillsFor(orders, alloc, lvl.Price)
	})
}

// fifoAllocate serves orders front to back, each receiving
// min(remaining, demand left). A positive lot quantizes each take.
func fifoAllocate(rems []num.Dec, q, lot num.Dec) []num.Dec {
	alloc := make([]num.Dec, len(rems))
	for i, rem := range rems {
		if q <= 0 {
			break
		}
		take := num.Min(rem, q).Trunc(lot)
		if take <= 0 {
			continue
		}
		alloc[i] = take
		q -= take
	}
	return alloc
}
