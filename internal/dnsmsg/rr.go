package dnsmsg

// ResourceHeader is the fields shared by all resource records.
// The record type is carried by the concrete Resource implementation.
type ResourceHeader struct {
	Name  Name
	Class Class
	TTL   uint32
}

// Resource is a resource record with a typed body.
// Implementations: AResource, PTRResource, SRVResource.
type Resource interface {
	Hdr() *ResourceHeader
	Type() Type
	bodyLen() int
	packBody(msg []byte, off int) (int, error)
}

// AResource holds an IPv4 host address.
type AResource struct {
	ResourceHeader
	IP [4]byte
}

func (r *AResource) Hdr() *ResourceHeader { return &r.ResourceHeader }

func (r *AResource) Type() Type { return TypeA }

func (r *AResource) bodyLen() int { return 4 }

func (r *AResource) packBody(msg []byte, off int) (int, error) {
	return packBytes(msg, off, r.IP[:])
}

// PTRResource maps a service type to a service instance name.
type PTRResource struct {
	ResourceHeader
	PTR Name
}

func (r *PTRResource) Hdr() *ResourceHeader { return &r.ResourceHeader }

func (r *PTRResource) Type() Type { return TypePTR }

func (r *PTRResource) bodyLen() int { return r.PTR.PackLen() }

func (r *PTRResource) packBody(msg []byte, off int) (int, error) {
	return r.PTR.pack(msg, off)
}

// SRVResource maps a service instance name to a target host and port.
type SRVResource struct {
	ResourceHeader
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   Name
}

func (r *SRVResource) Hdr() *ResourceHeader { return &r.ResourceHeader }

func (r *SRVResource) Type() Type { return TypeSRV }

func (r *SRVResource) bodyLen() int { return 6 + r.Target.PackLen() }

func (r *SRVResource) packBody(msg []byte, off int) (int, error) {
	off, err := packUint16(msg, off, r.Priority)
	if err != nil {
		return off, err
	}
	off, err = packUint16(msg, off, r.Weight)
	if err != nil {
		return off, err
	}
	off, err = packUint16(msg, off, r.Port)
	if err != nil {
		return off, err
	}
	return r.Target.pack(msg, off)
}

// no compression len
func resourcePackLen(r Resource) int {
	l := 0
	l += r.Hdr().Name.PackLen()
	l += 10 // type, class, ttl (uint32), length
	l += r.bodyLen()
	return l
}

func packResource(r Resource, msg []byte, off int) (int, error) {
	hdr := r.Hdr()
	off, err := hdr.Name.pack(msg, off)
	if err != nil {
		return off, newSectionErr("name", err)
	}
	off, err = packUint16(msg, off, uint16(r.Type()))
	if err != nil {
		return off, newSectionErr("type", err)
	}
	off, err = packUint16(msg, off, uint16(hdr.Class))
	if err != nil {
		return off, newSectionErr("class", err)
	}
	off, err = packUint32(msg, off, hdr.TTL)
	if err != nil {
		return off, newSectionErr("ttl", err)
	}
	off, err = packUint16(msg, off, uint16(r.bodyLen()))
	if err != nil {
		return off, newSectionErr("length", err)
	}
	off, err = r.packBody(msg, off)
	if err != nil {
		return off, newSectionErr("data", err)
	}
	return off, nil
}

// unpackResource unpacks one resource record. Records of unsupported
// types are skipped over using their declared data length and returned
// as a nil Resource with no error.
func unpackResource(msg []byte, off int) (Resource, int, error) {
	name, off, err := unpackName(msg, off)
	if err != nil {
		return nil, 0, newSectionErr("name", err)
	}
	typ, off, err := unpackUint16Msg(msg, off)
	if err != nil {
		return nil, 0, newSectionErr("type", err)
	}
	cls, off, err := unpackUint16Msg(msg, off)
	if err != nil {
		return nil, 0, newSectionErr("class", err)
	}
	ttl, off, err := unpackUint32Msg(msg, off)
	if err != nil {
		return nil, 0, newSectionErr("ttl", err)
	}
	dataLen, off, err := unpackUint16Msg(msg, off)
	if err != nil {
		return nil, 0, newSectionErr("length", err)
	}
	dataBound := off + int(dataLen)
	if dataBound > len(msg) {
		return nil, 0, newSectionErr("data_length", errResourceLen)
	}

	hdr := ResourceHeader{Name: name, Class: Class(cls), TTL: ttl}
	switch Type(typ) {
	case TypeA:
		if dataLen != 4 {
			return nil, 0, newSectionErr("data_a", errInvalidRDataLen)
		}
		r := &AResource{ResourceHeader: hdr}
		copy(r.IP[:], msg[off:dataBound])
		return r, dataBound, nil
	case TypePTR:
		ptr, newOff, err := unpackName(msg[:dataBound], off)
		if err != nil {
			return nil, 0, newSectionErr("data_ptr", err)
		}
		if newOff != dataBound {
			return nil, 0, newSectionErr("data_ptr", errInvalidRDataLen)
		}
		return &PTRResource{ResourceHeader: hdr, PTR: ptr}, dataBound, nil
	case TypeSRV:
		priority, dataOff, err := unpackUint16Msg(msg[:dataBound], off)
		if err != nil {
			return nil, 0, newSectionErr("data_srv", err)
		}
		weight, dataOff, err := unpackUint16Msg(msg[:dataBound], dataOff)
		if err != nil {
			return nil, 0, newSectionErr("data_srv", err)
		}
		port, dataOff, err := unpackUint16Msg(msg[:dataBound], dataOff)
		if err != nil {
			return nil, 0, newSectionErr("data_srv", err)
		}
		target, dataOff, err := unpackName(msg[:dataBound], dataOff)
		if err != nil {
			return nil, 0, newSectionErr("data_srv", err)
		}
		if dataOff != dataBound {
			return nil, 0, newSectionErr("data_srv", errInvalidRDataLen)
		}
		return &SRVResource{
			ResourceHeader: hdr,
			Priority:       priority,
			Weight:         weight,
			Port:           port,
			Target:         target,
		}, dataBound, nil
	default:
		return nil, dataBound, nil
	}
}
