package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"

	"golang.org/x/net/ipv4"
)

// The well-known mDNS IPv4 group.
var multicastGroup = netip.AddrPortFrom(netip.AddrFrom4([4]byte{224, 0, 0, 251}), 5353)

type controlFunc = func(network, address string, c syscall.RawConn) error

// setupMulticastSocket binds the wildcard address on the mDNS port
// with address/port reuse so multiple local instances can coexist,
// then joins the multicast group.
func setupMulticastSocket(ctx context.Context, agentCfg *AgentConfig, socketCfg *SocketConfig) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: controlSocket(*socketCfg),
	}
	pc, err := lc.ListenPacket(ctx, "udp4", fmt.Sprintf(":%d", multicastGroup.Port()))
	if err != nil {
		return nil, fmt.Errorf("failed to bind socket, %w", err)
	}
	c := pc.(*net.UDPConn)

	var ifi *net.Interface
	if name := agentCfg.Interface; len(name) > 0 {
		ifi, err = net.InterfaceByName(name)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to lookup interface %s, %w", name, err)
		}
	}

	p := ipv4.NewPacketConn(c)
	group := &net.UDPAddr{IP: multicastGroup.Addr().AsSlice()}
	if err := p.JoinGroup(ifi, group); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to join multicast group, %w", err)
	}
	// Best effort. Loopback lets instances on the same host see each
	// other; some stacks have it on already.
	_ = p.SetMulticastLoopback(true)
	return c, nil
}

// localIPv4 returns the outbound-facing IPv4 address. Dialing a UDP
// socket only selects a route, no packet is sent.
func localIPv4() (netip.Addr, error) {
	c, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return netip.Addr{}, err
	}
	defer c.Close()
	addr := c.LocalAddr().(*net.UDPAddr).AddrPort().Addr().Unmap()
	if !addr.Is4() {
		return netip.Addr{}, errors.New("local address is not ipv4")
	}
	return addr, nil
}
