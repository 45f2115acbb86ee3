// Package metrics bundles the engine's prometheus instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	OrdersAccepted  prometheus.Counter
	OrdersRejected  prometheus.Counter
	Trades          prometheus.Counter
	TradedVolume    prometheus.Counter
	CancelsAccepted prometheus.Counter
	CancelsRejected prometheus.Counter
	OrdersExpired   prometheus.Counter
}

func New(instrument string) *Metrics {
	labels := prometheus.Labels{"instrument": instrument}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "matching_engine",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}
	return &Metrics{
		OrdersAccepted:  counter("orders_accepted_total", "Orders accepted by the engine."),
		OrdersRejected:  counter("orders_rejected_total", "Orders rejected at validation."),
		Trades:          counter("trades_total", "Trades generated by matching."),
		TradedVolume:    counter("traded_volume_total", "Total traded quantity, in whole units."),
		CancelsAccepted: counter("cancels_accepted_total", "Cancel requests that succeeded."),
		CancelsRejected: counter("cancels_rejected_total", "Cancel requests that were rejected."),
		OrdersExpired:   counter("orders_expired_total", "Day orders expired at end of day."),
	}
}

// Register attaches every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.OrdersAccepted,
		m.OrdersRejected,
		m.Trades,
		m.TradedVolume,
		m.CancelsAccepted,
		m.CancelsRejected,
		m.OrdersExpired,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
