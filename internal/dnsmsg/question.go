package dnsmsg

type Question struct {
	Name  Name
	Type  Type
	Class Class
}

// no compression Len
func (q *Question) Len() int {
	l := 0
	l += q.Name.PackLen()
	l += 4 // type and class (2*uint16)
	return l
}

func (q *Question) pack(msg []byte, off int) (int, error) {
	off, err := q.Name.pack(msg, off)
	if err != nil {
		return off, newSectionErr("name", err)
	}
	off, err = packUint16(msg, off, uint16(q.Type))
	if err != nil {
		return off, newSectionErr("type", err)
	}
	off, err = packUint16(msg, off, uint16(q.Class))
	if err != nil {
		return off, newSectionErr("class", err)
	}
	return off, nil
}

func unpackQuestion(msg []byte, off int) (Question, int, error) {
	name, off, err := unpackName(msg, off)
	if err != nil {
		return Question{}, 0, newSectionErr("name", err)
	}
	typ, off, err := unpackUint16Msg(msg, off)
	if err != nil {
		return Question{}, 0, newSectionErr("type", err)
	}
	cls, off, err := unpackUint16Msg(msg, off)
	if err != nil {
		return Question{}, 0, newSectionErr("class", err)
	}
	return Question{Name: name, Type: Type(typ), Class: Class(cls)}, off, nil
}
