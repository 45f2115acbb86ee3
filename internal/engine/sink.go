package engine

import (
	"github.com/rs/zerolog"

	"github.com/trpleo/matching-engine/internal/common"
)

// EventSink receives every event the engine emits, in emission order, from
// the engine's linearization goroutine. Implementations must not block
// indefinitely and must not call back into the engine: Submit and Cancel
// hold the serialization lock while publishing.
type EventSink interface {
	Publish(ev common.OrderEvent)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ev common.OrderEvent)

func (f SinkFunc) Publish(ev common.OrderEvent) { f(ev) }

// NoopSink discards every event.
type NoopSink struct{}

func (NoopSink) Publish(common.OrderEvent) {}

// LogSink renders every event as a structured log line.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) LogSink {
	return LogSink{log: log}
}

func (s LogSink) Publish(ev common.OrderEvent) {
	entry := s.log.Info().
		Str("event", ev.Type.String()).
		Uint64("seq", ev.Seq).
		Str("instrument", ev.Instrument).
		Str("orderId", ev.OrderID)
	if ev.OrderSeq != 0 {
		entry = entry.Uint64("orderSeq", ev.OrderSeq)
	}
	if ev.Reason != common.ReasonNone {
		entry = entry.Str("reason", string(ev.Reason))
	}
	if ev.Detail != "" {
		entry = entry.Str("detail", ev.Detail)
	}
	switch ev.Type {
	case common.OrderCancelled, common.OrderExpired:
		entry = entry.Str("remaining", ev.Remaining.String())
	case common.OrderMatched:
		if ev.Trade != nil {
			entry = entry.
				Str("tradeId", ev.Trade.ID).
				Str("price", ev.Trade.Price.String()).
				Str("quantity", ev.Trade.Quantity.String()).
				Str("maker", ev.Trade.MakerOrderID()).
				Str("taker", ev.Trade.TakerOrderID()).
				Str("takerSide", ev.Trade.TakerSide.String())
		}
	}
	entry.Msg("order event")
}
