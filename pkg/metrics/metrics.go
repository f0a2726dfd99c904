// Package metrics, chat motorunun Prometheus metriklerini tanımlar.
//
// Metrikler package-level değişkenlerdir ve init() içinde default registry'ye
// kaydedilir. Handler(), /metrics endpoint'i için promhttp handler'ını döner.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connections, registry'deki aktif WebSocket bağlantı sayısı.
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_connections",
		Help: "Current number of registered WebSocket connections",
	})

	// FramesTotal, işlenen inbound frame'ler; kind = type|limit|vote|update|delete|send|invalid.
	FramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_frames_total",
		Help: "Inbound frames processed, by kind",
	}, []string{"kind"})

	// LifecycleTotal, lifecycle operasyonlarının sonuçları.
	// op = send|edit|delete|vote, result = ok|rejected|error.
	LifecycleTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_lifecycle_total",
		Help: "Message lifecycle operations, by operation and result",
	}, []string{"op", "result"})

	// BroadcastDrops, send buffer'ı dolu olduğu için düşürülen alıcılar.
	BroadcastDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_broadcast_drops_total",
		Help: "Recipients dropped because their send buffer was full",
	})

	// CensoredTotal, moderasyon filtresinin değiştirdiği mesajlar.
	CensoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chat_censored_messages_total",
		Help: "Messages modified by the banned-word filter",
	})

	// LifecycleLatency, store write → re-fetch → broadcast pipeline süresi.
	LifecycleLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_lifecycle_latency_seconds",
		Help:    "Latency of the store write, re-fetch and broadcast pipeline",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"op"})

	// AssistantRequests, asistan çağrıları; result = ok|fallback.
	AssistantRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_assistant_requests_total",
		Help: "Assistant reply generations, by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(
		Connections,
		FramesTotal,
		LifecycleTotal,
		BroadcastDrops,
		CensoredTotal,
		LifecycleLatency,
		AssistantRequests,
	)
}

// Handler, Prometheus metrics HTTP handler'ını döner.
func Handler() http.Handler {
	return promhttp.Handler()
}
