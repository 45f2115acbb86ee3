// Package order holds the order entity: immutable placement attributes plus
// a single atomic state word carrying status and remaining quantity, so that
// fills and cancels racing from different goroutines resolve in one
// compare-and-swap cycle.
package order

import (
	"sync/atomic"
	"time"

	"github.com/trpleo/matching-engine/internal/common"
	"github.com/trpleo/matching-engine/pkg/num"
)

type Status uint32

const (
	Pending Status = iota
	Accepted
	PartiallyFilled
	Filled
	Cancelled
	Expired
	Rejected
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Accepted:
		return "accepted"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Expired:
		return "expired"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	switch s {
	case Filled, Cancelled, Expired, Rejected:
		return true
	}
	return false
}

// state is the immutable snapshot behind the order's atomic pointer. Every
// transition allocates a fresh state and installs it with a CAS, which is
// what makes (status, remaining) change atomically as a pair.
type state struct {
	status    Status
	remaining num.Dec
}

type Order struct {
	ID         string
	Account    string
	Instrument string
	Side       common.Side
	Kind       common.OrderKind
	// LimitPrice is zero for market orders.
	LimitPrice num.Dec
	// Quantity is the original quantity; it never changes after creation.
	Quantity   num.Dec
	TIF        common.TimeInForce
	Visibility common.Visibility
	CreatedAt  time.Time

	// seq is the engine sequence, assigned exactly once at acceptance.
	seq atomic.Uint64
	st  atomic.Pointer[state]
}

func New(id, account, instrument string, side common.Side, kind common.OrderKind,
	limitPrice, quantity num.Dec, tif common.TimeInForce, vis common.Visibility,
	createdAt time.Time) *Order {

	o := &Order{
		ID:         id,
		Account:    account,
		Instrument: instrument,
		Side:       side,
		Kind:       kind,
		LimitPrice: limitPrice,
		Quantity:   quantity,
		TIF:        tif,
		Visibility: vis,
		CreatedAt:  createdAt,
	}
	o.st.Store(&state{status: Pending, remaining: quantity})
	return o
}

// State loads status and remaining quantity as one consistent pair.
func (o *Order) State() (Status, num.Dec) {
	s := o.st.Load()
	return s.status, s.remaining
}

func (o *Order) Status() Status {
	return o.st.Load().status
}

func (o *Order) Remaining() num.Dec {
	return o.st.Load().remaining
}

// FilledQuantity derives how much of the order has traded so far.
func (o *Order) FilledQuantity() num.Dec {
	return o.Quantity - o.Remaining()
}

// Live reports whether the order can still be filled.
func (o *Order) Live() bool {
	s := o.Status()
	return s == Accepted || s == PartiallyFilled
}

// Sequence returns the engine sequence, zero until accepted.
func (o *Order) Sequence() uint64 { return o.seq.Load() }

// Accept transitions Pending to Accepted and pins the engine sequence.
// It fails if the order has left Pending already.
func (o *Order) Accept(sequence uint64) bool {
	for {
		cur := o.st.Load()
		if cur.status != Pending {
			return false
		}
		if o.st.CompareAndSwap(cur, &state{status: Accepted, remaining: cur.remaining}) {
			o.seq.Store(sequence)
			return true
		}
	}
}

// Reject transitions Pending to the terminal Rejected state.
func (o *Order) Reject() bool {
	for {
		cur := o.st.Load()
		if cur.status != Pending {
			return false
		}
		if o.st.CompareAndSwap(cur, &state{status: Rejected, remaining: cur.remaining}) {
			return true
		}
	}
}

// TryFill decrements remaining by min(requested, remaining) and returns the
// quantity actually filled. A cancelled, expired or already filled order
// fills to zero. The status moves to PartiallyFilled or Filled in the same
// CAS that adjusts the quantity, so a concurrent cancel can never split a
// fill.
func (o *Order) TryFill(requested num.Dec) num.Dec {
	if requested <= 0 {
		return 0
	}
	for {
		cur := o.st.Load()
		if cur.status != Accepted && cur.status != PartiallyFilled {
			return 0
		}
		fill := num.Min(requested, cur.remaining)
		if fill <= 0 {
			return 0
		}
		next := &state{remaining: cur.remaining - fill, status: PartiallyFilled}
		if next.remaining == 0 {
			next.status = Filled
		}
		if o.st.CompareAndSwap(cur, next) {
			return fill
		}
	}
}

// TryCancel moves the order to Cancelled. It succeeds only from Accepted or
// PartiallyFilled; losing the CAS to an in-flight fill re-examines the new
// state on the next loop.
func (o *Order) TryCancel() bool {
	return o.terminate(Cancelled)
}

// TryExpire moves the order to Expired, used by the end-of-day sweep.
func (o *Order) TryExpire() bool {
	return o.terminate(Expired)
}

func (o *Order) terminate(to Status) bool {
	for {
		cur := o.st.Load()
		if cur.status != Accepted && cur.status != PartiallyFilled {
			return false
		}
		if o.st.CompareAndSwap(cur, &state{status: to, remaining: cur.remaining}) {
			return true
		}
	}
}

// VisibleQuantity is the amount depth snapshots advertise for this order:
// the full remainder for visible orders, nothing for hidden ones, and at
// most the display quantity for icebergs. Terminal orders advertise zero.
func (o *Order) VisibleQuantity() num.Dec {
	st, rem := o.State()
	if st != Accepted && st != PartiallyFilled {
		return 0
	}
	switch o.Visibility.Mode {
	case common.Hidden:
		return 0
	case common.Iceberg:
		return num.Min(rem, o.Visibility.Display)
	}
	return rem
}
