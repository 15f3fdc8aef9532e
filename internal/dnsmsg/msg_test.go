package dnsmsg

import (
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func mustName(t *testing.T, s string) Name {
	t.Helper()
	n, err := ParseName(s)
	require.NoError(t, err)
	return n
}

func testMsg(t *testing.T) *Msg {
	m := new(Msg)
	m.Response = true
	m.Authoritative = true
	m.Questions = append(m.Questions, Question{
		Name:  mustName(t, "_http._tcp.local"),
		Type:  TypePTR,
		Class: ClassINET,
	})
	m.Answers = append(m.Answers,
		&PTRResource{
			ResourceHeader: ResourceHeader{Name: mustName(t, "_http._tcp.local"), Class: ClassINET, TTL: 120},
			PTR:            mustName(t, "svc1.local"),
		},
		&SRVResource{
			ResourceHeader: ResourceHeader{Name: mustName(t, "svc1.local"), Class: ClassINET, TTL: 120},
			Priority:       10,
			Weight:         20,
			Port:           8080,
			Target:         mustName(t, "host1.local"),
		},
		&AResource{
			ResourceHeader: ResourceHeader{Name: mustName(t, "host1.local"), Class: ClassINET, TTL: 120},
			IP:             [4]byte{10, 0, 0, 9},
		},
	)
	return m
}

func packMsg(t *testing.T, m *Msg) []byte {
	t.Helper()
	b := make([]byte, m.Len())
	n, err := m.Pack(b)
	require.NoError(t, err)
	require.Equal(t, m.Len(), n)
	return b[:n]
}

func Test_Pack_Unpack(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		r := require.New(t)
		m := testMsg(t)
		b := packMsg(t, m)

		m2, err := UnpackMsg(b)
		r.NoError(err)
		r.Equal(m, m2)
	})

	t.Run("flags literal", func(t *testing.T) {
		r := require.New(t)
		m := testMsg(t)
		b := packMsg(t, m)
		// response + authoritative
		r.Equal(uint16(0x8400), unpackUint16(b[2:4]))

		q := new(Msg)
		q.Questions = append(q.Questions, Question{Name: mustName(t, "_http._tcp.local"), Type: TypePTR, Class: ClassINET})
		b = packMsg(t, q)
		r.Equal(uint16(0x0000), unpackUint16(b[2:4]))
	})

	t.Run("miekg unpacks ours", func(t *testing.T) {
		r := require.New(t)
		b := packMsg(t, testMsg(t))

		ref := new(dns.Msg)
		r.NoError(ref.Unpack(b))
		r.True(ref.Response)
		r.True(ref.Authoritative)
		r.Equal(1, len(ref.Question))
		r.Equal("_http._tcp.local.", ref.Question[0].Name)
		r.Equal(3, len(ref.Answer))

		ptr, ok := ref.Answer[0].(*dns.PTR)
		r.True(ok)
		r.Equal("svc1.local.", ptr.Ptr)
		r.Equal(uint32(120), ptr.Hdr.Ttl)

		srv, ok := ref.Answer[1].(*dns.SRV)
		r.True(ok)
		r.Equal("host1.local.", srv.Target)
		r.Equal(uint16(8080), srv.Port)
		r.Equal(uint16(10), srv.Priority)
		r.Equal(uint16(20), srv.Weight)

		a, ok := ref.Answer[2].(*dns.A)
		r.True(ok)
		r.True(a.A.Equal(net.IPv4(10, 0, 0, 9)))
	})

	t.Run("we unpack miekg", func(t *testing.T) {
		r := require.New(t)
		ref := new(dns.Msg)
		ref.SetQuestion("_http._tcp.local.", dns.TypePTR)
		ref.Response = true
		ref.Authoritative = true
		ref.Answer = append(ref.Answer,
			&dns.PTR{
				Hdr: dns.RR_Header{Name: "_http._tcp.local.", Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 120},
				Ptr: "svc1.local.",
			},
			&dns.SRV{
				Hdr:      dns.RR_Header{Name: "svc1.local.", Rrtype: dns.TypeSRV, Class: dns.ClassINET, Ttl: 120},
				Priority: 0, Weight: 0, Port: 8080,
				Target: "host1.local.",
			},
			&dns.A{
				Hdr: dns.RR_Header{Name: "host1.local.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 120},
				A:   net.IPv4(10, 0, 0, 9),
			},
		)
		b, err := ref.Pack()
		r.NoError(err)

		m, err := UnpackMsg(b)
		r.NoError(err)
		r.True(m.Response)
		r.True(m.Authoritative)
		r.Equal(1, len(m.Questions))
		r.Equal("_http._tcp.local", m.Questions[0].Name.String())
		r.Equal(3, len(m.Answers))

		ptr, ok := m.Answers[0].(*PTRResource)
		r.True(ok)
		r.Equal("svc1.local", ptr.PTR.String())

		srv, ok := m.Answers[1].(*SRVResource)
		r.True(ok)
		r.Equal("host1.local", srv.Target.String())
		r.Equal(uint16(8080), srv.Port)

		a, ok := m.Answers[2].(*AResource)
		r.True(ok)
		r.Equal([4]byte{10, 0, 0, 9}, a.IP)
	})

	t.Run("unsupported rr is skipped", func(t *testing.T) {
		r := require.New(t)
		ref := new(dns.Msg)
		ref.SetQuestion("host2.local.", dns.TypeA)
		ref.Response = true
		ref.Answer = append(ref.Answer,
			&dns.TXT{
				Hdr: dns.RR_Header{Name: "host2.local.", Rrtype: dns.TypeTXT, Class: dns.ClassINET, Ttl: 120},
				Txt: []string{"k=v"},
			},
			&dns.A{
				Hdr: dns.RR_Header{Name: "host2.local.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 120},
				A:   net.IPv4(10, 0, 0, 9),
			},
		)
		b, err := ref.Pack()
		r.NoError(err)

		m, err := UnpackMsg(b)
		r.NoError(err)
		r.Equal(1, len(m.Answers))
		_, ok := m.Answers[0].(*AResource)
		r.True(ok)
	})

	t.Run("compressed name is a decode error", func(t *testing.T) {
		r := require.New(t)
		ref := new(dns.Msg)
		ref.SetQuestion("svc1.local.", dns.TypePTR)
		ref.Response = true
		ref.Compress = true
		ref.Answer = append(ref.Answer, &dns.PTR{
			Hdr: dns.RR_Header{Name: "svc1.local.", Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 120},
			Ptr: "svc1.local.",
		})
		b, err := ref.Pack()
		r.NoError(err)

		_, err = UnpackMsg(b)
		r.Error(err)
	})

}

func Test_Decode_Robustness(t *testing.T) {
	valid := packMsg(t, testMsg(t))

	t.Run("truncated prefixes", func(t *testing.T) {
		r := require.New(t)
		for l := 0; l < len(valid); l++ {
			_, err := UnpackMsg(valid[:l])
			r.Error(err, "prefix of length %d must not decode", l)
		}
	})

	t.Run("rdata length overrun", func(t *testing.T) {
		r := require.New(t)
		// A minimal response with one A record whose declared rdata
		// length exceeds the remaining buffer.
		b := make([]byte, 0, 64)
		b = append(b, 0, 0, 0x84, 0, 0, 0, 0, 1, 0, 0, 0, 0) // header, ancount=1
		b = append(b, 5, 'h', 'o', 's', 't', '1', 0)         // name host1
		b = append(b, 0, 1, 0, 1)                            // type A, class IN
		b = append(b, 0, 0, 0, 120)                          // ttl
		b = append(b, 0, 200)                                // rdlength 200, only 4 bytes follow
		b = append(b, 10, 0, 0, 9)
		_, err := UnpackMsg(b)
		r.ErrorIs(err, errResourceLen)
	})

	t.Run("a record with wrong rdata length", func(t *testing.T) {
		r := require.New(t)
		b := make([]byte, 0, 64)
		b = append(b, 0, 0, 0x84, 0, 0, 0, 0, 1, 0, 0, 0, 0)
		b = append(b, 5, 'h', 'o', 's', 't', '1', 0)
		b = append(b, 0, 1, 0, 1)
		b = append(b, 0, 0, 0, 120)
		b = append(b, 0, 3) // A rdata must be 4 bytes
		b = append(b, 10, 0, 9)
		_, err := UnpackMsg(b)
		r.ErrorIs(err, errInvalidRDataLen)
	})

	t.Run("declared counts exceed content", func(t *testing.T) {
		r := require.New(t)
		b := make([]byte, 12)
		b[5] = 200 // qdcount=200, empty body
		_, err := UnpackMsg(b)
		r.Error(err)
	})
}

func Test_Msg_Len(t *testing.T) {
	r := require.New(t)
	m := testMsg(t)
	b := packMsg(t, m)
	r.Equal(m.Len(), len(b))

	// a short buffer fails cleanly
	short := make([]byte, m.Len()-1)
	_, err := m.Pack(short)
	r.Error(err)
}
