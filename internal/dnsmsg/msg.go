package dnsmsg

const (
	headerBitQR = 1 << 15 // query/response (response=1)
	headerBitAA = 1 << 10 // authoritative
	headerBitTC = 1 << 9  // truncated
	headerBitRD = 1 << 8  // recursion desired
	headerBitRA = 1 << 7  // recursion available
	headerBitAD = 1 << 5  // authentic data
	headerBitCD = 1 << 4  // checking disabled
)

type header struct {
	id          uint16
	bits        uint16
	questions   uint16
	answers     uint16
	authorities uint16
	additionals uint16
}

func (h *header) header() Header {
	return Header{
		ID:                 h.id,
		Response:           (h.bits & headerBitQR) != 0,
		OpCode:             OpCode(h.bits>>11) & 0xF,
		Authoritative:      (h.bits & headerBitAA) != 0,
		Truncated:          (h.bits & headerBitTC) != 0,
		RecursionDesired:   (h.bits & headerBitRD) != 0,
		RecursionAvailable: (h.bits & headerBitRA) != 0,
		AuthenticData:      (h.bits & headerBitAD) != 0,
		CheckingDisabled:   (h.bits & headerBitCD) != 0,
		RCode:              RCode(h.bits & 0xF),
	}
}

func (h *header) pack(msg []byte) error {
	if len(msg) < 12 {
		return ErrSmallBuffer
	}
	putUint16(msg[0:2], h.id)
	putUint16(msg[2:4], h.bits)
	putUint16(msg[4:6], h.questions)
	putUint16(msg[6:8], h.answers)
	putUint16(msg[8:10], h.authorities)
	putUint16(msg[10:12], h.additionals)
	return nil
}

func (h *header) unpack(msg []byte, off int) (int, error) {
	hdr := msg[off:]
	if len(hdr) < 12 {
		return 0, ErrSmallBuffer
	}
	off += 12
	h.id = unpackUint16(hdr[0:2])
	h.bits = unpackUint16(hdr[2:4])
	h.questions = unpackUint16(hdr[4:6])
	h.answers = unpackUint16(hdr[6:8])
	h.authorities = unpackUint16(hdr[8:10])
	h.additionals = unpackUint16(hdr[10:12])
	return off, nil
}

// Header is a representation of a DNS message header.
// The zero Header packs to the flags value 0x0000 (plain query).
// Response+Authoritative pack to 0x8400, the mDNS shared-response
// flags value.
type Header struct {
	ID                 uint16
	Response           bool
	OpCode             OpCode
	Authoritative      bool
	Truncated          bool
	RecursionDesired   bool
	RecursionAvailable bool
	AuthenticData      bool
	CheckingDisabled   bool
	RCode              RCode
}

func (m *Header) Pack() (id uint16, bits uint16) {
	id = m.ID
	bits = uint16(m.OpCode)<<11 | uint16(m.RCode)
	if m.RecursionAvailable {
		bits |= headerBitRA
	}
	if m.RecursionDesired {
		bits |= headerBitRD
	}
	if m.Truncated {
		bits |= headerBitTC
	}
	if m.Authoritative {
		bits |= headerBitAA
	}
	if m.Response {
		bits |= headerBitQR
	}
	if m.AuthenticData {
		bits |= headerBitAD
	}
	if m.CheckingDisabled {
		bits |= headerBitCD
	}
	return
}

// Msg is one mDNS message. Questions and Answers preserve their
// insertion order; the codec performs no dedup.
type Msg struct {
	Header
	Questions []Question
	Answers   []Resource
}

// Len is the packed msg length. Outgoing packets are never compressed.
func (m *Msg) Len() (l int) {
	if m == nil {
		return 0
	}
	l += 12 // header

	for i := range m.Questions {
		l += m.Questions[i].Len()
	}
	for _, r := range m.Answers {
		l += resourcePackLen(r)
	}
	return l
}

func UnpackMsg(msg []byte) (*Msg, error) {
	m := new(Msg)
	err := m.Unpack(msg)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Unpack decodes msg. It never reads out of bounds: any truncated or
// otherwise malformed input returns an error.
//
// Records of unsupported types in the answer section are skipped.
// The authority and additional sections are left unparsed, nothing in
// the engine reads them.
func (m *Msg) Unpack(msg []byte) error {
	var off int
	var h header
	off, err := h.unpack(msg, off)
	if err != nil {
		return newSectionErr("header", err)
	}
	m.Header = h.header()

	for i := 0; i < int(h.questions); i++ {
		var q Question
		q, off, err = unpackQuestion(msg, off)
		if err != nil {
			return newSectionErr("questions", err)
		}
		m.Questions = append(m.Questions, q)
	}

	for i := 0; i < int(h.answers); i++ {
		var r Resource
		r, off, err = unpackResource(msg, off)
		if err != nil {
			return newSectionErr("answers", err)
		}
		if r != nil {
			m.Answers = append(m.Answers, r)
		}
	}
	return nil
}

// Pack packs m into b. Returns the msg size.
// The size of b should be m.Len(). If b is not big enough, an error
// will be returned.
func (m *Msg) Pack(b []byte) (int, error) {
	if len(m.Questions) > int(^uint16(0)) {
		return 0, errTooManyQuestions
	}
	if len(m.Answers) > int(^uint16(0)) {
		return 0, errTooManyAnswers
	}

	var h header
	h.id, h.bits = m.Header.Pack()
	h.questions = uint16(len(m.Questions))
	h.answers = uint16(len(m.Answers))

	off := 12
	if len(b) < off {
		return 0, newSectionErr("header", ErrSmallBuffer)
	}

	for i := range m.Questions {
		var err error
		if off, err = m.Questions[i].pack(b, off); err != nil {
			return off, newSectionErr("question", err)
		}
	}
	for _, r := range m.Answers {
		var err error
		if off, err = packResource(r, b, off); err != nil {
			return off, newSectionErr("answer", err)
		}
	}

	h.pack(b[:12])
	return off, nil
}
