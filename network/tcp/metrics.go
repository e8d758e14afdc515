package tcp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	acceptedVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "sessions_accepted_total",
		Help:      "Connections accepted by server services.",
	}, []string{"service"})
	rejectedVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "sessions_rejected_total",
		Help:      "Sessions refused because the service was full.",
	}, []string{"service"})
	activeVec = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "netcore",
		Name:      "sessions_active",
		Help:      "Sessions currently registered with a service.",
	}, []string{"service"})
	bytesInVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "recv_bytes_total",
		Help:      "Bytes read from sessions.",
	}, []string{"service"})
	bytesOutVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "send_bytes_total",
		Help:      "Bytes written to sessions.",
	}, []string{"service"})
	packetsVec = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "recv_packets_total",
		Help:      "Framed records delivered to handlers.",
	}, []string{"service"})
)

// 按服务名区分，同名服务共享
type serviceMetrics struct {
	accepted prometheus.Counter
	rejected prometheus.Counter
	active   prometheus.Gauge
	bytesIn  prometheus.Counter
	bytesOut prometheus.Counter
	packets  prometheus.Counter
}

func newServiceMetrics(name string) *serviceMetrics {
	return &serviceMetrics{
		accepted: acceptedVec.WithLabelValues(name),
		rejected: rejectedVec.WithLabelValues(name),
		active:   activeVec.WithLabelValues(name),
		bytesIn:  bytesInVec.WithLabelValues(name),
		bytesOut: bytesOutVec.WithLabelValues(name),
		packets:  packetsVec.WithLabelValues(name),
	}
}

// 没有归属服务的session共用
var unboundMetrics = newServiceMetrics("")
