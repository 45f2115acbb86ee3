// Package engine ties the book sides, the allocation policy and the event
// stream together. Submissions and cancels are serialized through a single
// mutex, which is the engine's linearization point: sequence numbers,
// matching and event emission all happen under it. Snapshot reads never
// take the lock.
package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/trpleo/matching-engine/internal/book"
	"github.com/trpleo/matching-engine/internal/common"
	"github.com/trpleo/matching-engine/internal/metrics"
	"github.com/trpleo/matching-engine/internal/order"
	"github.com/trpleo/matching-engine/internal/policy"
	"github.com/trpleo/matching-engine/pkg/num"
)

type Engine struct {
	instrument string
	pol        policy.Policy
	sink       EventSink
	log        zerolog.Logger
	met        *metrics.Metrics

	mu   sync.Mutex
	bids *book.Side
	asks *book.Side
	// index maps resting order ids to their handles for O(log n) cancels.
	// Filled orders stay in it until the next GC pass.
	index    map[string]*order.Order
	orderSeq uint64
	eventSeq uint64
	tradeSeq uint64
}

type Option func(*Engine)

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.met = m }
}

func New(instrument string, pol policy.Policy, sink EventSink, opts ...Option) *Engine {
	if sink == nil {
		sink = NoopSink{}
	}
	e := &Engine{
		instrument: instrument,
		pol:        pol,
		sink:       sink,
		log:        zerolog.Nop(),
		bids:       book.NewSide(common.Buy),
		asks:       book.NewSide(common.Sell),
		index:      make(map[string]*order.Order),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Instrument() string { return e.instrument }

// Submit runs one order through validation, matching and book placement.
// Every outcome is reported through the sink; the returned error mirrors
// rejection events, fill-or-kill cancellations and no-liquidity
// cancellations for programmatic callers, and is nil otherwise.
func (e *Engine) Submit(o *order.Order) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.emit(common.OrderEvent{Type: common.OrderReceived, OrderID: o.ID})

	if detail := e.validate(o); detail != "" {
		o.Reject()
		e.emit(common.OrderEvent{
			Type:    common.OrderRejected,
			OrderID: o.ID,
			Reason:  common.ReasonValidation,
			Detail:  detail,
		})
		if e.met != nil {
			e.met.OrdersRejected.Inc()
		}
		return fmt.Errorf("%w: %s", common.ErrValidation, detail)
	}

	e.orderSeq++
	o.Accept(e.orderSeq)
	e.emit(common.OrderEvent{Type: common.OrderAccepted, OrderID: o.ID, OrderSeq: o.Sequence()})
	if e.met != nil {
		e.met.OrdersAccepted.Inc()
	}

	opposite := e.oppositeSide(o.Side)
	fills := e.pol.Match(o, opposite)

	// Fill-or-kill commits nothing unless the full quantity is feasible.
	// The proposals double as the dry-run: the lock serializes them
	// against every book mutation.
	if o.TIF == common.FillOrKill && proposedTotal(fills) < o.Quantity {
		o.TryCancel()
		e.emit(common.OrderEvent{
			Type:      common.OrderCancelled,
			OrderID:   o.ID,
			OrderSeq:  o.Sequence(),
			Remaining: o.Remaining(),
			Reason:    common.ReasonFokUnfillable,
		})
		return common.ErrPolicyInfeasible
	}

	filled := e.commit(o, fills)
	e.compactAfterMatch(opposite)

	_, remaining := o.State()
	switch {
	case remaining == 0:
		e.emit(common.OrderEvent{Type: common.OrderFilled, OrderID: o.ID, OrderSeq: o.Sequence()})
	case o.Kind == common.Market || o.TIF == common.ImmediateOrCancel:
		reason := common.ReasonUnfilledRemainder
		if filled == 0 {
			reason = common.ReasonNoLiquidity
		}
		o.TryCancel()
		e.emit(common.OrderEvent{
			Type:      common.OrderCancelled,
			OrderID:   o.ID,
			OrderSeq:  o.Sequence(),
			Remaining: remaining,
			Reason:    reason,
		})
		if reason == common.ReasonNoLiquidity {
			return common.ErrNoLiquidity
		}
	default:
		e.sameSide(o.Side).Enqueue(o)
		e.index[o.ID] = o
		e.emit(common.OrderEvent{
			Type:      common.BookUpdated,
			OrderID:   o.ID,
			OrderSeq:  o.Sequence(),
			Remaining: remaining,
		})
	}
	return nil
}

// Cancel tombstones the order if it is still live. The order is not pulled
// out of its FIFO queue synchronously; matching skips it and compaction
// reclaims it later.
func (e *Engine) Cancel(orderID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.index[orderID]
	if !ok {
		e.emit(common.OrderEvent{
			Type:    common.CancelRejected,
			OrderID: orderID,
			Reason:  common.ReasonUnknownOrder,
		})
		if e.met != nil {
			e.met.CancelsRejected.Inc()
		}
		return common.ErrUnknownOrder
	}
	if !o.TryCancel() {
		e.emit(common.OrderEvent{
			Type:     common.CancelRejected,
			OrderID:  orderID,
			OrderSeq: o.Sequence(),
			Reason:   common.ReasonAlreadyTerminal,
		})
		if e.met != nil {
			e.met.CancelsRejected.Inc()
		}
		return common.ErrAlreadyTerminal
	}
	delete(e.index, orderID)
	e.emit(common.OrderEvent{
		Type:      common.OrderCancelled,
		OrderID:   orderID,
		OrderSeq:  o.Sequence(),
		Remaining: o.Remaining(),
		Reason:    common.ReasonRequested,
	})
	if e.met != nil {
		e.met.CancelsAccepted.Inc()
	}
	return nil
}

// EndOfDay expires every resting Day order. Both sides are swept afterwards
// so the expired tombstones are reclaimed eagerly.
func (e *Engine) EndOfDay() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	expired := 0
	for _, side := range []*book.Side{e.bids, e.asks} {
		side.WalkBest(func(lvl *book.PriceLevel) bool {
			for _, o := range lvl.Orders() {
				if o.TIF != common.Day || !o.TryExpire() {
					continue
				}
				expired++
				delete(e.index, o.ID)
				e.emit(common.OrderEvent{
					Type:      common.OrderExpired,
					OrderID:   o.ID,
					OrderSeq:  o.Sequence(),
					Remaining: o.Remaining(),
					Reason:    common.ReasonEndOfDay,
				})
				if e.met != nil {
					e.met.OrdersExpired.Inc()
				}
			}
			return true
		})
		side.Sweep()
	}
	return expired
}

// GC compacts both sides and drops terminal orders from the index,
// reclaiming tombstoned orders and empty levels. The pump runs it
// periodically.
func (e *Engine) GC() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bids.Sweep()
	e.asks.Sweep()
	for id, o := range e.index {
		if o.Status().Terminal() {
			delete(e.index, id)
		}
	}
}

// commit applies proposed fills against resting orders. Each resting fill
// is a CAS that can lose to a concurrent cancel; a lost race skips the
// proposal silently and the trade never happens.
func (e *Engine) commit(incoming *order.Order, fills []policy.Fill) num.Dec {
	var filled num.Dec
	for _, f := range fills {
		actual := f.Resting.TryFill(f.Quantity)
		if actual <= 0 {
			continue
		}
		got := incoming.TryFill(actual)
		if got != actual {
			// The incoming order is not book-visible yet, so nothing can
			// cancel it mid-submit. Anything else is an accounting bug.
			e.log.Error().
				Str("orderId", incoming.ID).
				Str("proposed", actual.String()).
				Str("applied", got.String()).
				Msg("incoming fill mismatch")
		}
		filled += actual

		buyID, sellID := incoming.ID, f.Resting.ID
		if incoming.Side == common.Sell {
			buyID, sellID = f.Resting.ID, incoming.ID
		}
		e.tradeSeq++
		trade := &common.Trade{
			ID:          uuid.New().String(),
			Instrument:  e.instrument,
			Price:       f.Price,
			Quantity:    actual,
			BuyOrderID:  buyID,
			SellOrderID: sellID,
			TakerSide:   incoming.Side,
			Timestamp:   time.Now(),
			Sequence:    e.tradeSeq,
		}
		e.emit(common.OrderEvent{
			Type:     common.OrderMatched,
			OrderID:  incoming.ID,
			OrderSeq: incoming.Sequence(),
			Trade:    trade,
		})

		if e.met != nil {
			e.met.Trades.Inc()
			e.met.TradedVolume.Add(float64(actual.Units()) / float64(num.Scale))
		}

		if f.Resting.Status() == order.Filled {
			// The index entry stays until the next GC pass so a late
			// cancel is answered with already_terminal, not unknown.
			e.emit(common.OrderEvent{
				Type:     common.OrderFilled,
				OrderID:  f.Resting.ID,
				OrderSeq: f.Resting.Sequence(),
			})
		}
	}
	return filled
}

// compactAfterMatch eagerly removes fully consumed best levels. Matching
// only ever touches a best-first prefix of the opposite side, so walking
// from the best level until the first live one is enough.
func (e *Engine) compactAfterMatch(side *book.Side) {
	for {
		lvl, ok := side.Best()
		if !ok {
			return
		}
		if lvl.Compact() > 0 {
			return
		}
		side.Remove(lvl)
	}
}

func (e *Engine) validate(o *order.Order) string {
	switch {
	case o.ID == "":
		return "empty order id"
	case o.Status() != order.Pending:
		return "order already submitted"
	case o.Instrument != e.instrument:
		return fmt.Sprintf("instrument %q not traded here", o.Instrument)
	case !o.Quantity.IsPositive():
		return "quantity must be positive"
	case o.Kind == common.Limit && !o.LimitPrice.IsPositive():
		return "limit order requires a positive limit price"
	case o.Kind == common.Market && !o.LimitPrice.IsZero():
		return "market order must not carry a limit price"
	case o.Visibility.Mode == common.Iceberg && !o.Visibility.Display.IsPositive():
		return "iceberg order requires a positive display quantity"
	}
	if _, dup := e.index[o.ID]; dup {
		return "duplicate order id"
	}
	return ""
}

func (e *Engine) oppositeSide(s common.Side) *book.Side {
	if s == common.Buy {
		return e.asks
	}
	return e.bids
}

func (e *Engine) sameSide(s common.Side) *book.Side {
	if s == common.Buy {
		return e.bids
	}
	return e.asks
}

// emit stamps the event with the next emission sequence and hands it to
// the sink. Always called under the engine lock, which is what makes the
// stream totally ordered.
func (e *Engine) emit(ev common.OrderEvent) {
	e.eventSeq++
	ev.Seq = e.eventSeq
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if ev.Instrument == "" {
		ev.Instrument = e.instrument
	}
	e.sink.Publish(ev)
}

func proposedTotal(fills []policy.Fill) num.Dec {
	var total num.Dec
	for _, f := range fills {
		total += f.Quantity
	}
	return total
}
