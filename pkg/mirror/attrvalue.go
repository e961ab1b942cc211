package mirror

import (
	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// Attribute value kind tags, matching pkg/session's on-wire encoding.
const (
	attrKindBool uint8 = iota
	attrKindFloat64
	attrKindString
	attrKindStringList
)

func readAttrValue(r *wire.BlockReader) (any, error) {
	kind, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	switch kind {
	case attrKindBool:
		return r.ReadBool()
	case attrKindFloat64:
		return r.ReadFloat64()
	case attrKindString:
		return r.ReadString()
	case attrKindStringList:
		n, err := r.ReadUint32()
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, n)
		for i := uint32(0); i < n; i++ {
			s, err := r.ReadString()
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, wire.NewError(wire.ErrorKindMalformedFrame, "unknown attribute value kind %d", kind)
	}
}

func readAttributesInto(r *wire.BlockReader, attrs *model.AttributeMap) error {
	count, err := r.ReadUint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadString()
		if err != nil {
			return err
		}
		value, err := readAttrValue(r)
		if err != nil {
			return err
		}
		attrs.Set(model.AttributeName(name), value)
	}
	return nil
}
