package common

import (
	"time"

	"github.com/trpleo/matching-engine/pkg/num"
)

type EventType int

const (
	OrderReceived EventType = iota
	OrderAccepted
	OrderRejected
	OrderMatched
	OrderFilled
	OrderCancelled
	OrderExpired
	CancelRejected
	BookUpdated
)

func (t EventType) String() string {
	switch t {
	case OrderReceived:
		return "order_received"
	case OrderAccepted:
		return "order_accepted"
	case OrderRejected:
		return "order_rejected"
	case OrderMatched:
		return "order_matched"
	case OrderFilled:
		return "order_filled"
	case OrderCancelled:
		return "order_cancelled"
	case OrderExpired:
		return "order_expired"
	case CancelRejected:
		return "cancel_rejected"
	case BookUpdated:
		return "book_updated"
	}
	return "unknown"
}

// Reason qualifies rejections, cancellations and expiries.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonFokUnfillable     Reason = "fok_unfillable"
	ReasonNoLiquidity       Reason = "no_liquidity"
	ReasonUnfilledRemainder Reason = "unfilled_remainder"
	ReasonUnknownOrder      Reason = "unknown_order"
	ReasonAlreadyTerminal   Reason = "already_terminal"
	ReasonEndOfDay          Reason = "end_of_day"
	ReasonRequested         Reason = "requested"
	ReasonValidation        Reason = "validation"
	ReasonOverflow          Reason = "arithmetic_overflow"
)

// OrderEvent is one entry of the engine's totally ordered event stream.
// Seq is the emission sequence: for any two events from the same engine,
// emission order and Seq order agree. Fields beyond Type/Seq/At are
// populated per event type.
type OrderEvent struct {
	Type       EventType
	Seq        uint64
	At         time.Time
	OrderID    string
	Instrument string
	// OrderSeq is the order's engine sequence, assigned at acceptance.
	OrderSeq  uint64
	Remaining num.Dec
	Reason    Reason
	// Detail carries the human-readable validation failure, if any.
	Detail string
	Trade  *Trade
}
