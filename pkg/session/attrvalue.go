package session

import (
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// Attribute values carry a small closed set of Go types (bool,
// float64, string, []string); this tag distinguishes them on the
// wire the same way wire.PropertyType does for property values.
const (
	attrKindBool uint8 = iota
	attrKindFloat64
	attrKindString
	attrKindStringList
)

func writeAttrValue(w *wire.BlockWriter, value any) error {
	switch v := value.(type) {
	case bool:
		w.WriteUint8(attrKindBool)
		w.WriteBool(v)
	case float64:
		w.WriteUint8(attrKindFloat64)
		w.WriteFloat64(v)
	case int:
		w.WriteUint8(attrKindFloat64)
		w.WriteFloat64(float64(v))
	case string:
		w.WriteUint8(attrKindString)
		w.WriteString(v)
	case []string:
		w.WriteUint8(attrKindStringList)
		w.WriteUint32(uint32(len(v)))
		for _, s := range v {
			w.WriteString(s)
		}
	default:
		return wire.NewError(wire.ErrorKindMalformedFrame, "unsupported attribute value type %T", value)
	}
	return nil
}

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
