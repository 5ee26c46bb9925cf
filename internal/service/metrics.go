package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics served at /metrics:
//   - signal_trade_orders_total{exchange,stage,result}
//   - signal_trade_order_attempts_total{exchange,stage}
//   - signal_trade_hedge_events_total{exchange,event}
var (
	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_trade_orders_total",
			Help: "Order submissions by stage and final result",
		},
		[]string{"exchange", "stage", "result"},
	)

	mtxAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_trade_order_attempts_total",
			Help: "Individual order submission attempts including retries",
		},
		[]string{"exchange", "stage"},
	)

	mtxHedge = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signal_trade_hedge_events_total",
			Help: "Hedge lifecycle events (opened, closed, unwound, unwind_failed)",
		},
		[]string{"exchange", "event"},
	)
)

func init() {
	prometheus.MustRegister(mtxOrders, mtxAttempts, mtxHedge)
}

func observeAttempt(exchange, stage string) {
	mtxAttempts.WithLabelValues(exchange, stage).Inc()
}

func observeOrder(exchange, stage string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mtxOrders.WithLabelValues(exchange, stage, result).Inc()
}

func observeHedge(exchange, event string) {
	mtxHedge.WithLabelValues(exchange, event).Inc()
}
