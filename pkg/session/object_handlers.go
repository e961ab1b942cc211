package session

import (
	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/registry"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

func (s *Session) handleGetObject(f wire.Frame) error {
	r, err := wire.NewBlockReader(f.Payload)
	if err != nil {
		return err
	}
	objectID, err := r.ReadString()
	if err != nil {
		return err
	}

	obj, err := s.reg.LookupOrErr(objectID)
	if err != nil {
		return s.respondError(f, wire.KindOf(err), "%s", err)
	}

	s.reg.Acquire(objectID)
	handle := s.handles.Lease(objectID, func() { s.reg.Release(objectID) })

	if bc, ok := s.reg.Broadcaster(objectID); ok {
		propTok := bc.SubscribeProperty(func(c registry.PropertyChange) {
			s.sendPropertyChanged(handle, c)
		})
		attrTok := bc.SubscribeAttribute(func(c registry.AttributeChange) {
			s.sendAttributeChanged(handle, c)
		})
		s.handles.SetOnClose(handle, func() {
			bc.UnsubscribeProperty(propTok)
			bc.UnsubscribeAttribute(attrTok)
			s.reg.Release(objectID)
		})
	}

	w := wire.NewBlockWriter()
	if err := writeObject(w, handle, obj); err != nil {
		return err
	}
	return s.send(wire.NewResponseFrame(wire.CommandGetObject, f.Header.RequestID, w.Bytes()))
}

func (s *Session) handleReleaseObject(f wire.Frame) error {
	r, err := wire.NewBlockReader(f.Payload)
	if err != nil {
		return err
	}
	handle, err := r.ReadUint32()
	if err != nil {
		return err
	}
	s.handles.Release(handle)
	return nil
}

func (s *Session) handleObjectSetProperty(f wire.Frame) error {
	r, err := wire.NewBlockReader(f.Payload)
	if err != nil {
		return err
	}
	handle, err := r.ReadUint32()
	if err != nil {
		return err
	}
	name, err := r.ReadString()
	if err != nil {
		return err
	}
	typTag, err := r.ReadUint8()
	if err != nil {
		return err
	}
	typ := wire.PropertyType(typTag)
	value, err := r.ReadPropertyValue(typ)
	if err != nil {
		return err
	}

	objectID, err := s.handles.Resolve(handle)
	if err != nil {
		return nil // stale handle on an event: drop silently, per spec
	}
	obj, ok := s.reg.Lookup(objectID)
	if !ok {
		return nil
	}
	prop, ok := obj.Property(name)
	if !ok || prop.Type() != typ {
		return nil
	}
	_ = prop.SetValue(value) // rejected writes are silent, per spec §4.3
	return nil
}

func (s *Session) sendPropertyChanged(handle uint32, c registry.PropertyChange) {
	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	w.WriteString(c.Name)
	w.WriteUint8(uint8(c.Type))
	w.WritePropertyValue(c.Type, c.Value)
	_ = s.send(wire.NewEventFrame(wire.CommandObjectPropertyChanged, w.Bytes()))
}

func (s *Session) sendAttributeChanged(handle uint32, c registry.AttributeChange) {
	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	w.WriteString(c.ItemName)
	w.WriteString(string(c.Attr))
	if err := writeAttrValue(w, c.Value); err != nil {
		return
	}
	_ = s.send(wire.NewEventFrame(wire.CommandObjectAttributeChanged, w.Bytes()))
}

func (s *Session) handleGetTableModel(f wire.Frame) error {
	r, err := wire.NewBlockReader(f.Payload)
	if err != nil {
		return err
	}
	objectID, err := r.ReadString()
	if err != nil {
		return err
	}

	obj, err := s.reg.LookupOrErr(objectID)
	if err != nil {
		return s.respondError(f, wire.KindOf(err), "%s", err)
	}
	tm, ok := obj.TableModel()
	if !ok {
		return s.respondError(f, wire.ErrorKindFeatureUnavailable, "object %q has no table model", objectID)
	}

	sub := &tableSub{tableModel: tm}
	handle := s.handles.Lease(objectID+"#table", nil)

	sub.columnToken = tm.SubscribeColumnHeaders(func(headers []string) {
		s.sendTableModelColumnHeadersChanged(handle, headers)
	})
	sub.rowCountToken = tm.SubscribeRowCount(func(count int) {
		s.sendTableModelRowCountChanged(handle, count)
	})
	s.handles.SetOnClose(handle, func() {
		s.tablesMu.Lock()
		delete(s.tables, handle)
		s.tablesMu.Unlock()
		tm.UnsubscribeColumnHeaders(sub.columnToken)
		tm.UnsubscribeRowCount(sub.rowCountToken)
	})

	s.tablesMu.Lock()
	s.tables[handle] = sub
	s.tablesMu.Unlock()

	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	writeStringList(w, tm.ColumnHeaders())
	w.WriteUint32(uint32(tm.RowCount()))
	return s.send(wire.NewResponseFrame(wire.CommandGetTableModel, f.Header.RequestID, w.Bytes()))
}

func (s *Session) handleTableModelSetRegion(f wire.Frame) error {
	r, err := wire.NewBlockReader(f.Payload)
	if err != nil {
		return err
	}
	handle, err := r.ReadUint32()
	if err != nil {
		return err
	}
	cmin, err := r.ReadInt32()
	if err != nil {
		return err
	}
	cmax, err := r.ReadInt32()
	if err != nil {
		return err
	}
	rmin, err := r.ReadInt32()
	if err != nil {
		return err
	}
	rmax, err := r.ReadInt32()
	if err != nil {
		return err
	}

	s.tablesMu.Lock()
	sub, ok := s.tables[handle]
	s.tablesMu.Unlock()
	if !ok {
		return nil
	}

	region := model.Region{ColumnMin: int(cmin), ColumnMax: int(cmax), RowMin: int(rmin), RowMax: int(rmax)}
	s.tablesMu.Lock()
	sub.region = region
	sub.hasRegion = true
	s.tablesMu.Unlock()

	cells := sub.tableModel.Cells(region)
	s.sendTableModelUpdateRegion(handle, region, cells)
	return nil
}

func (s *Session) sendTableModelColumnHeadersChanged(handle uint32, headers []string) {
	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	writeStringList(w, headers)
	_ = s.send(wire.NewEventFrame(wire.CommandTableModelColumnHeadersChanged, w.Bytes()))
}

func (s *Session) sendTableModelRowCountChanged(handle uint32, count int) {
	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	w.WriteUint32(uint32(count))
	_ = s.send(wire.NewEventFrame(wire.CommandTableModelRowCountChanged, w.Bytes()))
}

func (s *Session) sendTableModelUpdateRegion(handle uint32, region model.Region, cells map[[2]int]string) {
	w := wire.NewBlockWriter()
	w.WriteUint32(handle)
	w.WriteInt32(int32(region.ColumnMin))
	w.WriteInt32(int32(region.ColumnMax))
	w.WriteInt32(int32(region.RowMin))
	w.WriteInt32(int32(region.RowMax))
	w.WriteUint32(uint32(len(cells)))
	for row := region.RowMin; row <= region.RowMax; row++ {
		for col := region.ColumnMin; col <= region.ColumnMax; col++ {
			text, ok := cells[[2]int{col, row}]
			if !ok {
				continue
			}
			w.WriteInt32(int32(col))
			w.WriteInt32(int32(row))
			w.WriteString(text)
		}
	}
	_ = s.send(wire.NewEventFrame(wire.CommandTableModelUpdateRegion, w.Bytes()))
}

func writeStringList(w *wire.BlockWriter, items []string) {
	w.WriteUint32(uint32(len(items)))
	for _, s := range items {
		w.WriteString(s)
	}
}
