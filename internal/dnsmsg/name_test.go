package dnsmsg

import (
	"bytes"
	"errors"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func labelField(s string) [][]byte {
	return bytes.FieldsFunc([]byte(s), func(r rune) bool { return r == '.' })
}

func TestScanner(t *testing.T) {
	r := require.New(t)
	testFn := func(s string) {
		var builder NameBuilder
		err := builder.ParseReadable([]byte(s))
		r.NoError(err)
		n := builder.ToName()

		labels := make([][]byte, 0)

		scanner := NewNameScanner(n)
		for scanner.Scan() {
			labels = append(labels, scanner.Label())
		}
		r.NoError(scanner.Err())

		r.EqualValues(labelField(s), labels)
	}

	testFn(".")
	testFn("a.b")
	testFn("_http._tcp.local")
	testFn("a.a.aaaaaaaaaa.a.a.a.a.a.a.a.a.a.a.b")
}

func TestParseName(t *testing.T) {
	r := require.New(t)

	// valid names survive a miekg/dns unpack of the wire form
	for _, s := range []string{"svc1.local", "_http._tcp.local", "host1.local."} {
		n, err := ParseName(s)
		r.NoError(err)
		out, _, err := dns.UnpackDomainName(append([]byte(n), 0), 0)
		r.NoError(err)
		r.Equal(dns.Fqdn(s), out)
	}

	_, err := ParseName(string(make([]byte, 64)) + ".local")
	r.ErrorIs(err, errSegTooLong)

	long := bytes.Repeat([]byte("aaaaaaaa."), 40) // > 255 bytes encoded
	_, err = ParseName(string(long) + "local")
	r.ErrorIs(err, errNameTooLong)

	// root forms
	for _, s := range []string{"", "."} {
		n, err := ParseName(s)
		r.NoError(err)
		r.Equal(0, len(n))
		r.Equal(".", n.String())
	}
}

func TestNameReadable(t *testing.T) {
	r := require.New(t)
	for _, s := range []string{"svc1.local", "_http._tcp.local", "a.b"} {
		n, err := ParseName(s)
		r.NoError(err)
		r.Equal(s, n.String())
	}
}

func TestUnpackName(t *testing.T) {
	r := require.New(t)

	// compression pointers are not accepted
	_, _, err := unpackName([]byte{0xC0, 0x00}, 0)
	r.ErrorIs(err, errCompressedName)

	// reserved label length prefixes
	_, _, err = unpackName([]byte{0x40, 'a'}, 0)
	r.ErrorIs(err, errReserved)

	// missing terminating zero length octet
	_, _, err = unpackName([]byte{1, 'a'}, 0)
	r.ErrorIs(err, errBaseLen)

	// label length overruns the buffer
	_, _, err = unpackName([]byte{5, 'a', 'b'}, 0)
	r.ErrorIs(err, errCalcLen)

	// valid wire form round-trips
	var builder NameBuilder
	r.NoError(builder.ParseReadable([]byte("svc1.local")))
	wire := append(builder.Data(), 0)
	n, off, err := unpackName(wire, 0)
	r.NoError(err)
	r.Equal(len(wire), off)
	r.Equal("svc1.local", n.String())
}

func TestUnpackNameTooLong(t *testing.T) {
	r := require.New(t)

	// A chain of labels whose total decoded length exceeds 255. Each
	// label is individually valid.
	b := make([]byte, 0, 300)
	for i := 0; i < 5; i++ {
		b = append(b, 63)
		b = append(b, bytes.Repeat([]byte{'a'}, 63)...)
	}
	b = append(b, 0)
	_, _, err := unpackName(b, 0)
	r.True(errors.Is(err, errNameTooLong))
}
