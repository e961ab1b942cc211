package session

import (
	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

// Item kind tags distinguishing the three InterfaceItem variants on
// the wire.
const (
	itemKindProperty uint8 = iota
	itemKindMethod
	itemKindEvent
)

// writeObject serializes handle, class id, and every interface item
// (with current values and attribute snapshots for properties) into
// a GetObject response payload.
func writeObject(w *wire.BlockWriter, handle uint32, obj *model.Object) error {
	w.WriteUint32(handle)
	w.WriteString(obj.ClassID())

	items := obj.Items()
	w.WriteUint32(uint32(len(items)))
	for _, item := range items {
		switch it := item.(type) {
		case *model.Property:
			w.WriteString(it.Name())
			w.WriteUint8(itemKindProperty)
			w.WriteUint8(uint8(it.Type()))
			w.WritePropertyValue(it.Type(), it.Value())
			if err := writeAttributes(w, it.Attributes.Snapshot()); err != nil {
				return err
			}
		case *model.Method:
			w.WriteString(it.Name())
			w.WriteUint8(itemKindMethod)
		case *model.Event:
			w.WriteString(it.Name())
			w.WriteUint8(itemKindEvent)
		}
	}
	return nil
}

func writeAttributes(w *wire.BlockWriter, attrs map[model.AttributeName]any) error {
	w.WriteUint32(uint32(len(attrs)))
	for name, value := range attrs {
		w.WriteString(string(name))
		if err := writeAttrValue(w, value); err != nil {
			return err
		}
	}
	return nil
}
