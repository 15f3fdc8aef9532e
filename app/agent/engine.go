package agent

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/IrineSistiana/mosmdns/internal/dnsmsg"
	"github.com/IrineSistiana/mosmdns/internal/registry"
	"github.com/rs/zerolog"
)

const maxPacketSize = 4096

// advertiseLoop periodically advertises all registered services as
// unsolicited responses.
func (a *agent) advertiseLoop(interval time.Duration) {
	logger := a.subLogger("advertiser")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			if err := a.advertiseServices(logger); err != nil {
				logger.Error().Err(err).Msg("failed to advertise services")
			}
		}
	}
}

func (a *agent) advertiseServices(logger *zerolog.Logger) error {
	m, err := a.buildAdvertiseMsg()
	if err != nil {
		return err
	}
	if len(m.Answers) == 0 {
		logger.Debug().Msg("no local services to advertise")
		return nil
	}
	logger.Debug().Int("answers", len(m.Answers)).Msg("advertising services")
	return a.sendMsg(m)
}

// buildAdvertiseMsg snapshots the registry and builds one response
// message advertising every registered service. With an empty registry
// the message has no answers and the local address is not resolved.
func (a *agent) buildAdvertiseMsg() (*dnsmsg.Msg, error) {
	m := new(dnsmsg.Msg)
	m.Response = true
	m.Authoritative = true

	services := a.registry.Services()
	if len(services) == 0 {
		return m, nil
	}

	local, err := a.localAddr()
	if err != nil {
		return nil, fmt.Errorf("failed to get local ipv4 address, %w", err)
	}
	for i := range services {
		if err := appendServiceAnswers(m, &services[i], local); err != nil {
			return nil, fmt.Errorf("bad service record %s, %w", services[i].ID, err)
		}
	}
	return m, nil
}

// appendServiceAnswers appends the three records describing svc.
// The PTR, SRV, A order is kept per service: some mdns listeners infer
// record relationships positionally. The A record is skipped when addr
// is not IPv4.
func appendServiceAnswers(m *dnsmsg.Msg, svc *registry.ServiceRecord, addr netip.Addr) error {
	svcType, err := dnsmsg.ParseName(svc.ServiceType)
	if err != nil {
		return err
	}
	id, err := dnsmsg.ParseName(svc.ID)
	if err != nil {
		return err
	}
	origin, err := dnsmsg.ParseName(svc.Origin)
	if err != nil {
		return err
	}

	ttl := svc.EffectiveTTL()
	m.Answers = append(m.Answers,
		&dnsmsg.PTRResource{
			ResourceHeader: dnsmsg.ResourceHeader{Name: svcType, Class: dnsmsg.ClassINET, TTL: ttl},
			PTR:            id,
		},
		&dnsmsg.SRVResource{
			ResourceHeader: dnsmsg.ResourceHeader{Name: id, Class: dnsmsg.ClassINET, TTL: ttl},
			Priority:       svc.Priority,
			Weight:         svc.Weight,
			Port:           svc.Port,
			Target:         origin,
		},
	)

	addr = addr.Unmap()
	if addr.Is4() {
		r := &dnsmsg.AResource{
			ResourceHeader: dnsmsg.ResourceHeader{Name: origin, Class: dnsmsg.ClassINET, TTL: ttl},
		}
		r.IP = addr.As4()
		m.Answers = append(m.Answers, r)
	}
	return nil
}

// queryLoop periodically sends one PTR query for serviceType.
func (a *agent) queryLoop(serviceType string, interval time.Duration) {
	logger := a.subLogger("querier")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			if err := a.sendQuery(serviceType); err != nil {
				logger.Error().Err(err).Str("service_type", serviceType).Msg("failed to send query")
			} else {
				logger.Debug().Str("service_type", serviceType).Msg("query sent")
			}
		}
	}
}

func (a *agent) sendQuery(serviceType string) error {
	name, err := dnsmsg.ParseName(serviceType)
	if err != nil {
		return fmt.Errorf("invalid service type, %w", err)
	}
	m := new(dnsmsg.Msg) // zero header, plain query
	m.Questions = append(m.Questions, dnsmsg.Question{
		Name:  name,
		Type:  dnsmsg.TypePTR,
		Class: dnsmsg.ClassINET,
	})
	return a.sendMsg(m)
}

// listenLoop receives packets from the shared socket and drives the
// per-message state machine. Malformed packets are counted and dropped,
// the loop continues. A socket error is fatal to this activity and is
// reported to the supervisor.
func (a *agent) listenLoop() {
	logger := a.subLogger("listener")
	buf := make([]byte, maxPacketSize)
	for {
		n, src, err := a.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctxDone(a.ctx) {
				return // conn closed by cancellation
			}
			a.fatal("listener exited", err)
			return
		}
		a.metrics.packetRxTotal.Inc()
		if a.opt.logPackets {
			logger.Debug().Stringer("src", src).Int("size", n).Msg("packet received")
		}

		m, err := dnsmsg.UnpackMsg(buf[:n])
		if err != nil {
			a.metrics.decodeErrTotal.Inc()
			logger.Warn().Stringer("src", src).Err(err).Msg("failed to decode packet")
			continue
		}
		if m.Response {
			a.handleResponse(m, logger)
		} else {
			a.handleQuery(m, src, logger)
		}
	}
}

// handleResponse absorbs every A record of a response packet into the
// node registry. Other record types are ignored.
func (a *agent) handleResponse(m *dnsmsg.Msg, logger *zerolog.Logger) {
	for _, r := range m.Answers {
		ar, ok := r.(*dnsmsg.AResource)
		if !ok {
			continue
		}
		node := registry.NodeRecord{
			ID:        ar.Name.String(),
			IPAddress: netip.AddrFrom4(ar.IP).String(),
			TTL:       ar.TTL,
		}
		a.registry.AddNode(node)
		a.metrics.nodeDiscoveredTotal.Inc()
		logger.Debug().Str("node", node.ID).Str("ip", node.IPAddress).Msg("node discovered")
	}
}

// handleQuery answers every PTR/IN question that matches at least one
// registered service. One response packet is sent per matching
// question, addressed to the multicast group (shared-response
// semantics), not unicast back to the querier.
func (a *agent) handleQuery(m *dnsmsg.Msg, src netip.AddrPort, logger *zerolog.Logger) {
	for i := range m.Questions {
		q := &m.Questions[i]
		if q.Type != dnsmsg.TypePTR || q.Class != dnsmsg.ClassINET {
			continue
		}
		resp := a.answerQuestion(q, src.Addr(), logger)
		if resp == nil {
			continue
		}
		if err := a.sendMsg(resp); err != nil {
			logger.Error().Stringer("src", src).Err(err).Msg("failed to send response")
			continue
		}
		a.metrics.questionAnsweredTotal.Inc()
		logger.Debug().Stringer("qname", q.Name).Int("answers", len(resp.Answers)).Msg("question answered")
	}
}

// answerQuestion builds the response for one PTR question. The service
// type match is exact byte equality. The A records carry the querying
// socket's source address; for a non-IPv4 source they are skipped.
// Returns nil if no registered service matches.
func (a *agent) answerQuestion(q *dnsmsg.Question, src netip.Addr, logger *zerolog.Logger) *dnsmsg.Msg {
	requested := q.Name.String()

	resp := new(dnsmsg.Msg)
	resp.Response = true
	resp.Authoritative = true

	matched := false
	services := a.registry.Services()
	for i := range services {
		if services[i].ServiceType != requested {
			continue
		}
		matched = true
		if err := appendServiceAnswers(resp, &services[i], src); err != nil {
			logger.Warn().Str("id", services[i].ID).Err(err).Msg("bad service record, skipped")
		}
	}
	if !matched {
		return nil
	}
	return resp
}

func (a *agent) sendMsg(m *dnsmsg.Msg) error {
	b := make([]byte, m.Len())
	n, err := m.Pack(b)
	if err != nil {
		return fmt.Errorf("failed to pack msg, %w", err)
	}
	if _, err := a.conn.WriteToUDPAddrPort(b[:n], a.dst); err != nil {
		return err
	}
	a.metrics.packetTxTotal.Inc()
	return nil
}

// reportLoop periodically dumps the node registry. Diagnostic only.
func (a *agent) reportLoop(interval time.Duration) {
	logger := a.subLogger("reporter")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			nodes := a.registry.Nodes()
			arr := zerolog.Arr()
			for _, n := range nodes {
				arr.Str(n.ID + "/" + n.IPAddress)
			}
			logger.Info().Int("count", len(nodes)).Array("nodes", arr).Msg("node registry")
		}
	}
}
