// Package metrics는 웹훅 트레이딩 서비스의 Prometheus 지표를 정의합니다.
//
//   - tastyhook_signals_total{status}            시그널 처리 결과
//   - tastyhook_orders_total{type,outcome}       주문 제출/체결 결과
//   - tastyhook_gateway_calls_total{op,outcome}  브로커 호출 결과
//   - tastyhook_fallbacks_total{reason}          데모 모드 전환
//   - tastyhook_last_trade_timestamp_seconds     마지막 성공 거래 시각
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	signals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastyhook_signals_total",
			Help: "Signals processed by result status",
		},
		[]string{"status"},
	)

	orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastyhook_orders_total",
			Help: "Orders submitted by type and observed outcome",
		},
		[]string{"type", "outcome"},
	)

	gatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastyhook_gateway_calls_total",
			Help: "Brokerage gateway calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tastyhook_fallbacks_total",
			Help: "Demo-mode degradations by reason",
		},
		[]string{"reason"},
	)

	lastTrade = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tastyhook_last_trade_timestamp_seconds",
			Help: "Unix time of the last successful trade",
		},
	)
)

func init() {
	prometheus.MustRegister(signals, orders, gatewayCalls, fallbacks, lastTrade)
}

func IncSignal(status string)            { signals.WithLabelValues(status).Inc() }
func IncOrder(orderType, outcome string) { orders.WithLabelValues(orderType, outcome).Inc() }
func IncGatewayCall(op, outcome string)  { gatewayCalls.WithLabelValues(op, outcome).Inc() }
func IncFallback(reason string)          { fallbacks.WithLabelValues(reason).Inc() }
func SetLastTrade(t time.Time)           { lastTrade.Set(float64(t.Unix())) }
