package policy

import (
	"github.com/trpleo/matching-engine/internal/book"
	"github.com/trpleo/matching-engine/internal/order"
	"github.com/trpleo/matching-engine/pkg/num"
)

// LMMPriority reserves a fraction of each level's demand for lead market
// maker accounts before the general weighted pass. LMM orders stay eligible
// in the general pass, so they can receive allocation twice.
type LMMPriority struct {
	Accounts map[string]struct{}
	// Pct is the reserved LMM fraction in [0,1], fixed-scale.
	Pct     num.Dec
	Minimum num.Dec
	Lot     num.Dec
}

func NewLMMPriority(accounts []string, pct, minimum, lot num.Dec) LMMPriority {
	set := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		set[a] = struct{}{}
	}
	return LMMPriority{Accounts: set, Pct: pct, Minimum: minimum, Lot: lot}
}

func (p LMMPriority) Name() string { return "lmm_priority" }

func (p LMMPriority) isLMM(o *order.Order) bool {
	_, ok := p.Accounts[o.Account]
	return ok
}

func (p LMMPriority) Match(incoming *order.Order, opposite *book.Side) []Fill {
	return collect(incoming, opposite, func(lvl *book.PriceLevel, q num.Dec) []Fill {
		orders, rems := liveQueue(lvl)
		alloc := make([]num.Dec, len(rems))

		// LMM pass: floor(q·pct) distributed pro-rata over LMM orders
		// only. Whatever the pass cannot place returns to the pool.
		reserve, err := q.MulDiv(p.Pct, num.FromUnits(num.Scale))
		if err == nil {
			reserve = reserve.Trunc(p.Lot)
		} else {
			reserve = 0
		}
		if reserve > 0 {
			lmmIdx := make([]int, 0, len(orders))
			lmmRems := make([]num.Dec, 0, len(orders))
			for i, o := range orders {
				if p.isLMM(o) {
					lmmIdx = append(lmmIdx, i)
					lmmRems = append(lmmRems, rems[i])
				}
			}
			lmmAlloc := make([]num.Dec, len(lmmRems))
			proRataAllocate(lmmRems, lmmAlloc, reserve, p.Minimum, p.Lot)
			for j, i := range lmmIdx {
				alloc[i] += lmmAlloc[j]
				q -= lmmAlloc[j]
			}
		}

		// General pass over every order's residual capacity, LMM included.
		residual := make([]num.Dec, len(rems))
		for i := range rems {
			residual[i] = rems[i] - alloc[i]
		}
		general := make([]num.Dec, len(rems))
		proRataAllocate(residual, general, q, p.Minimum, p.Lot)
		for i := range alloc {
			alloc[i] += general[i]
		}
		return fillsFor(orders, alloc, lvl.Price)
	})
}
