package policy

import (
	"github.com/trpleo/matching-engine/internal/book"
	"github.com/trpleo/matching-engine/internal/order"
	"github.com/trpleo/matching-engine/pkg/num"
)

// ThresholdProRata splits each level by order size: resting orders below
// the threshold are served FIFO first, the rest share the residual demand
// pro-rata.
type ThresholdProRata struct {
	Threshold num.Dec
	Minimum   num.Dec
	Lot       num.Dec
}

func NewThresholdProRata(threshold, minimum, lot num.Dec) ThresholdProRata {
	return ThresholdProRata{Threshold: threshold, Minimum: minimum, Lot: lot}
}

func (p ThresholdProRata) Name() string { return "threshold_pro_rata" }

func (p ThresholdProRata) Match(incoming *order.Order, opposite *book.Side) []Fill {
	return collect(incoming, opposite, func(lvl *book.PriceLevel, q num.Dec) []Fill {
		orders, rems := liveQueue(lvl)
		alloc := make([]num.Dec, len(rems))

		// Small orders first, in arrival order.
		for i, rem := range rems {
			if q <= 0 {
				break
			}
			if rem >= p.Threshold {
				continue
			}
			take := num.Min(rem, q).Trunc(p.Lot)
			if take <= 0 {
				continue
			}
			alloc[i] = take
			q -= take
		}

		// Large orders share what is left pro-rata.
		if q > 0 {
			largeIdx := make([]int, 0, len(orders))
			largeRems := make([]num.Dec, 0, len(orders))
			for i, rem := range rems {
				if rem < p.Threshold {
					continue
				}
				largeIdx = append(largeIdx, i)
				largeRems = append(largeRems, rem)
			}
			largeAlloc := make([]num.Dec, len(largeRems))
			proRataAllocate(largeRems, largeAlloc, q, p.Minimum, p.Lot)
			for j, i := range largeIdx {
				alloc[i] += largeAlloc[j]
			}
		}
		return fillsFor(orders, alloc, lvl.Price)
	})
}
