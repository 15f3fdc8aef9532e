package agent

import (
	"github.com/IrineSistiana/mosmdns/internal/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func newMetricsReg() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	return reg
}

func regMetrics(r prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

type agentMetrics struct {
	packetRxTotal         prometheus.Counter
	packetTxTotal         prometheus.Counter
	decodeErrTotal        prometheus.Counter
	questionAnsweredTotal prometheus.Counter
	nodeDiscoveredTotal   prometheus.Counter
	services              prometheus.GaugeFunc
	nodes                 prometheus.GaugeFunc
}

func newAgentMetrics(reg *registry.Registry) *agentMetrics {
	return &agentMetrics{
		packetRxTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdns_packet_rx_total",
			Help: "The total number of packets received from the multicast group",
		}),
		packetTxTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdns_packet_tx_total",
			Help: "The total number of packets sent to the multicast group",
		}),
		decodeErrTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdns_decode_err_total",
			Help: "The total number of inbound packets dropped as malformed",
		}),
		questionAnsweredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdns_question_answered_total",
			Help: "The total number of questions answered with a response packet",
		}),
		nodeDiscoveredTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdns_node_discovered_total",
			Help: "The total number of node records absorbed from response packets",
		}),
		services: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "mdns_registry_services",
			Help: "The number of locally registered services",
		}, func() float64 { return float64(reg.NumServices()) }),
		nodes: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "mdns_registry_nodes",
			Help: "The number of discovered peer nodes",
		}, func() float64 { return float64(reg.NumNodes()) }),
	}
}

func (m *agentMetrics) RegisterMetricsTo(r prometheus.Registerer) error {
	return regMetrics(r,
		m.packetRxTotal, m.packetTxTotal, m.decodeErrTotal,
		m.questionAnsweredTotal, m.nodeDiscoveredTotal,
		m.services, m.nodes,
	)
}
