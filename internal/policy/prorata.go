package policy

import (
	"github.com/trpleo/matching-engine/internal/book"
	"github.com/trpleo/matching-engine/internal/order"
	"github.com/trpleo/matching-engine/pkg/num"
)

// ProRata allocates size-weighted shares at each level. Orders whose
// remaining quantity is below the minimum are excluded from the weighted
// pass, as are orders whose computed share falls below the minimum; both
// remain reachable by the residual FIFO sweep. With TopOfBookFifo set the
// earliest resting order is served to exhaustion before weighting the rest.
type ProRata struct {
	Minimum       num.Dec
	TopOfBookFifo bool
	// Lot quantizes every weighted quotient; zero disables quantization.
	Lot num.Dec
}

func NewProRata(minimum num.Dec, topOfBookFifo bool, lot num.Dec) ProRata {
	return ProRata{Minimum: minimum, TopOfBookFifo: topOfBookFifo, Lot: lot}
}

func (p ProRata) Name() string {
	if p.TopOfBookFifo {
		return "pro_rata_tob_fifo"
	}
	return "pro_rata"
}

func (p ProRata) Match(incoming *order.Order, opposite *book.Side) []Fill {
	return collect(incoming, opposite, func(lvl *book.PriceLevel, q num.Dec) []Fill {
		orders, rems := liveQueue(lvl)
		alloc := make([]num.Dec, len(rems))

		start := 0
		if p.TopOfBookFifo && len(orders) > 0 {
			head := num.Min(rems[0], q).Trunc(p.Lot)
			alloc[0] = head
			q -= head
			start = 1
		}
		proRataAllocate(rems[start:], alloc[start:], q, p.Minimum, p.Lot)
		return fillsFor(orders, alloc, lvl.Price)
	})
}

// ProRataTopOfBook always serves the first FIFO order to exhaustion before
// pro-rating the residual.
type ProRataTopOfBook struct {
	ProRata
}

func NewProRataTopOfBook(minimum, lot num.Dec) ProRataTopOfBook {
	return ProRataTopOfBook{ProRata{Minimum: minimum, TopOfBookFifo: true, Lot: lot}}
}

// proRataAllocate runs one weighted round over rems followed by a single
// residual FIFO sweep, adding into alloc (parallel to rems). Shares are
// floor(q·rem/S) over the eligible set, truncated to lot; shares below the
// minimum are dropped from the round and their portion joins the sweep.
// Every round either allocates or drops an order, so the work per level is
// linear in the queue length.
func proRataAllocate(rems, alloc []num.Dec, q, minimum, lot num.Dec) {
	if q <= 0 || len(rems) == 0 {
		return
	}
	var pool num.Dec
	for _, rem := range rems {
		if minimum <= 0 || rem >= minimum {
			pool += rem
		}
	}
	assigned := num.Dec(0)
	if pool > 0 {
		for i, rem := range rems {
			if minimum > 0 && rem < minimum {
				continue
			}
			share, err := q.MulDiv(rem, pool)
			if err != nil {
				continue
			}
			share = share.Trunc(lot)
			if minimum > 0 && share < minimum {
				continue
			}
			share = num.Min(share, rem)
			alloc[i] += share
			assigned += share
		}
	}

	// One FIFO sweep over the whole queue picks up truncation residue and
	// the portions returned by dropped orders. Anything left after the
	// sweep carries to the next price level.
	remainder := q - assigned
	for i, rem := range rems {
		if remainder <= 0 {
			break
		}
		headroom := rem - alloc[i]
		if headroom <= 0 {
			continue
		}
		take := num.Min(headroom, remainder).Trunc(lot)
		if take <= 0 {
			continue
		}
		alloc[i] += take
		remainder -= take
	}
}
