package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	tomb "gopkg.in/tomb.v2"

	"github.com/trpleo/matching-engine/internal/order"
)

const (
	opChanSize     = 1024
	defaultGCEvery = 5 * time.Second
)

var ErrPumpStopped = errors.New("pump stopped")

// op is one queued instruction: a submission when ord is set, a cancel
// otherwise.
type op struct {
	ord      *order.Order
	cancelID string
}

// Pump feeds the engine from a single-producer queue: one worker goroutine
// drains submissions and cancels in arrival order, and a janitor reclaims
// tombstoned orders on a timer. It is the asynchronous alternative to
// calling Submit and Cancel directly; either way the engine lock is the
// linearization point.
type Pump struct {
	eng     *Engine
	log     zerolog.Logger
	gcEvery time.Duration
	ops     chan op
	t       *tomb.Tomb
}

func NewPump(eng *Engine, gcEvery time.Duration) *Pump {
	if gcEvery <= 0 {
		gcEvery = defaultGCEvery
	}
	p := &Pump{
		eng:     eng,
		log:     eng.log,
		gcEvery: gcEvery,
		ops:     make(chan op, opChanSize),
		t:       &tomb.Tomb{},
	}
	// Keeper goroutine: guarantees the tomb always has a tracked
	// goroutine, so Stop resolves even if Run was never called.
	p.t.Go(func() error {
		<-p.t.Dying()
		return nil
	})
	return p
}

// Run drains the queue until ctx is cancelled or Stop is called. It blocks
// for the lifetime of the pump.
func (p *Pump) Run(ctx context.Context) error {
	select {
	case <-p.t.Dying():
		return ErrPumpStopped
	default:
	}
	p.t.Go(func() error {
		select {
		case <-ctx.Done():
			p.t.Kill(nil)
		case <-p.t.Dying():
		}
		return nil
	})
	p.t.Go(func() error {
		return p.worker(p.t)
	})
	p.t.Go(func() error {
		return p.janitor(p.t)
	})

	p.log.Info().Str("instrument", p.eng.Instrument()).Msg("pump running")
	return p.t.Wait()
}

// Stop signals shutdown and waits for the workers to exit.
func (p *Pump) Stop() error {
	p.t.Kill(nil)
	return p.t.Wait()
}

// Submit enqueues an order without waiting for matching.
func (p *Pump) Submit(o *order.Order) error {
	return p.enqueue(op{ord: o})
}

// Cancel enqueues a cancel request.
func (p *Pump) Cancel(orderID string) error {
	return p.enqueue(op{cancelID: orderID})
}

func (p *Pump) enqueue(o op) error {
	// Checked on its own first: with buffer space free the combined
	// select below could pick the send even while dying.
	select {
	case <-p.t.Dying():
		return ErrPumpStopped
	default:
	}
	select {
	case <-p.t.Dying():
		return ErrPumpStopped
	case p.ops <- o:
		return nil
	}
}

// worker is the single consumer of the op queue. Errors from the engine
// have already been reported through the sink, so here they are only
// logged and never fatal.
func (p *Pump) worker(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			p.drain()
			return nil
		case o := <-p.ops:
			p.apply(o)
		}
	}
}

// drain lands everything already queued during shutdown.
func (p *Pump) drain() {
	for {
		select {
		case o := <-p.ops:
			p.apply(o)
		default:
			return
		}
	}
}

func (p *Pump) apply(o op) {
	if o.ord != nil {
		if err := p.eng.Submit(o.ord); err != nil {
			p.log.Debug().Err(err).Str("orderId", o.ord.ID).Msg("submission not accepted")
		}
		return
	}
	if err := p.eng.Cancel(o.cancelID); err != nil {
		p.log.Debug().Err(err).Str("orderId", o.cancelID).Msg("cancel not accepted")
	}
}

// janitor periodically compacts both sides so tombstoned orders and empty
// levels do not linger in a quiet book.
func (p *Pump) janitor(t *tomb.Tomb) error {
	ticker := time.NewTicker(p.gcEvery)
	defer ticker.Stop()
	for {
		select {
		case <-t.Dying():
			return nil
		case <-ticker.C:
			p.eng.GC()
		}
	}
}
