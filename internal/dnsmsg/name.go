package dnsmsg

import (
	"bytes"
	"strconv"
)

// Name is a domain name in wire format: a sequence of length-prefixed
// labels, without the terminating zero length octet. A zero length Name
// is the root domain.
type Name []byte

// ParseName parses a readable dot-separated domain name.
// Both FQDN/non-FQDN are OK. Empty s or "." is the root domain.
func ParseName(s string) (Name, error) {
	var b NameBuilder
	if err := b.ParseReadable([]byte(s)); err != nil {
		return nil, err
	}
	return b.ToName(), nil
}

// Always returns 1~255.
func (n Name) PackLen() int {
	l := len(n)
	if l > 254 {
		l = 254 // invalid length, let pack() fail
	}
	return l + 1
}

func (n Name) pack(msg []byte, off int) (int, error) {
	scanner := NewNameScanner(n)
	for scanner.Scan() {
		seg := scanner.Label()
		var err error
		off, err = packByte(msg, off, byte(len(seg)))
		if err != nil {
			return off, err
		}
		off, err = packBytes(msg, off, seg)
		if err != nil {
			return off, err
		}
	}
	if err := scanner.Err(); err != nil {
		return off, err
	}
	return packByte(msg, off, 0)
}

// ToReadable converts n to the common readable format.
// Root domain will be '.' .
// Labels will be split by '.' . No '.' at the end of the name.
// Unprintable characters will be escaped as "\DDD".
// '.' and '\' will be "\.", "\\".
// If n is invalid, returns "", err.
func (n Name) ToReadable() (string, error) {
	if len(n) == 0 {
		return ".", nil
	}
	b := make([]byte, 0, len(n)+4)
	scanner := NewNameScanner(n)
	started := false
	for scanner.Scan() {
		if started {
			b = append(b, '.')
		}
		started = true
		b = appendEscapedLabel(b, scanner.Label())
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return string(b), nil
}

// String implements fmt.Stringer. Invalid names are "<invalid>".
func (n Name) String() string {
	s, err := n.ToReadable()
	if err != nil {
		return "<invalid>"
	}
	return s
}

func appendEscapedLabel(dst []byte, label []byte) []byte {
	for _, b := range label {
		if isPrintableLabelChar(b) {
			dst = append(dst, b)
		} else {
			switch b {
			case '.':
				dst = append(dst, "\\."...)
			case '\\':
				dst = append(dst, "\\\\"...)
			default:
				dst = append(dst, '\\')
				dst = strconv.AppendUint(dst, uint64(b), 10)
			}
		}
	}
	return dst
}

type NameBuilder struct {
	buf [254]byte
	l   uint8
}

func (b *NameBuilder) AppendLabel(s []byte) error {
	l := len(s)
	if l == 0 {
		return errZeroSegLen
	}
	if l > 63 {
		return errSegTooLong
	}

	labelStart := int(b.l)
	labelEnd := labelStart + 1 + l
	if labelEnd > 253 {
		return errNameTooLong
	}

	b.buf[labelStart] = byte(l)
	copy(b.buf[labelStart+1:], s)
	b.l = uint8(labelEnd)
	return nil
}

func (b *NameBuilder) Reset() {
	b.l = 0
}

// Empty s or "." will be the root domain.
// Both FQDN/non-FQDN are OK.
//
// Note: escaping ("\.", "\DDD" etc.) is not supported and will be
// parsed as part of the label.
func (b *NameBuilder) ParseReadable(s []byte) error {
	b.Reset()

	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}

	if len(s) == 0 {
		return nil
	}

	off := 0
	for off < len(s) {
		i := bytes.IndexByte(s[off:], '.')
		var label []byte
		if i > 0 {
			label = s[off : off+i]
		} else {
			label = s[off:]
		}
		err := b.AppendLabel(label)
		if err != nil {
			return err
		}
		off += len(label) + 1
	}
	return nil
}

func (b *NameBuilder) Data() []byte {
	return b.buf[:b.l]
}

func (b *NameBuilder) ToName() Name {
	buf := make([]byte, b.l)
	copy(buf, b.buf[:b.l])
	return Name(buf)
}

// unpack unpacks a domain name. Compression pointers are rejected:
// outgoing packets never use compression and the decode side does not
// assume it either.
func (b *NameBuilder) unpack(msg []byte, off int) (int, error) {
	currOff := off
	name := b.buf[:0]

	for {
		if currOff >= len(msg) {
			return off, errBaseLen
		}
		c := int(msg[currOff])
		currOff++
		switch c & 0xC0 {
		case 0x00: // String segment
			if c == 0x00 {
				// A zero length signals the end of the name.
				b.l = uint8(len(name))
				return currOff, nil
			}
			endOff := currOff + c
			if endOff > len(msg) {
				return off, errCalcLen
			}
			if len(name)+1+c+1 > 255 {
				return off, errNameTooLong
			}
			name = append(name, byte(c))
			name = append(name, msg[currOff:endOff]...)
			currOff = endOff
		case 0xC0: // Pointer
			return off, errCompressedName
		default:
			// Prefixes 0x80 and 0x40 are reserved.
			return off, errReserved
		}
	}
}

func unpackName(msg []byte, off int) (Name, int, error) {
	var b NameBuilder
	off, err := b.unpack(msg, off)
	if err != nil {
		return nil, off, err
	}
	return b.ToName(), off, nil
}

type NameScanner struct {
	n   []byte
	off int
	err error

	label []byte
}

func NewNameScanner(n []byte) NameScanner {
	return NameScanner{n: n}
}

func (s *NameScanner) Scan() bool {
	s.label = nil
	if len(s.n) > 254 {
		s.err = errNameTooLong
		return false
	}
	if s.off > len(s.n)-1 {
		return false
	}

	labelLen := int(s.n[s.off])
	if labelLen == 0 {
		s.err = errZeroSegLen
		return false
	}
	if labelLen > 63 {
		s.err = errInvalidLabelLen
		return false
	}

	labelStart := s.off + 1
	labelEnd := labelStart + labelLen
	if labelEnd > len(s.n) {
		s.err = errInvalidLabelLen
		return false
	}

	s.label = s.n[labelStart:labelEnd]
	s.off = labelEnd
	return true
}

func (s *NameScanner) Label() []byte {
	return s.label
}

func (s *NameScanner) Err() error {
	return s.err
}
