package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintastic/traintastic-go/pkg/wire"
)

func TestPropertySetValueIdempotent(t *testing.T) {
	p := NewProperty("name", wire.PropertyTypeString, PropertyWritable, "alice")

	fired := 0
	p.SetOnChange(func(name string, value any) { fired++ })

	require.NoError(t, p.SetValue("alice"))
	assert.Equal(t, 0, fired, "writing the current value must not fire the change callback")

	require.NoError(t, p.SetValue("bob"))
	assert.Equal(t, 1, fired)
	assert.Equal(t, "bob", p.Value())
}

func TestPropertyReadOnlyRejectsWrite(t *testing.T) {
	p := NewProperty("name", wire.PropertyTypeString, PropertyReadOnly, "alice")
	err := p.SetValue("bob")
	require.Error(t, err)
	assert.Equal(t, wire.ErrorKindInvalidHandle, wire.KindOf(err))
}

func TestPropertyDisabledRejectsWrite(t *testing.T) {
	p := NewProperty("name", wire.PropertyTypeString, PropertyWritable, "alice")
	p.Attributes.Set(AttrEnabled, false)
	err := p.SetValue("bob")
	require.Error(t, err)
}

func TestPropertySetValueInternalBypassesEnabled(t *testing.T) {
	p := NewProperty("name", wire.PropertyTypeString, PropertyWritable, "alice")
	p.Attributes.Set(AttrEnabled, false)
	require.NoError(t, p.SetValueInternal("bob"))
	assert.Equal(t, "bob", p.Value())
}

func TestAttributeMapChangeEventsIndependentOfValue(t *testing.T) {
	am := NewAttributeMap("speed")

	var changes []AttributeName
	am.SetOnChange(func(itemName string, attr AttributeName, value any) {
		changes = append(changes, attr)
	})

	am.Set(AttrEnabled, true) // already default; must not fire
	assert.Empty(t, changes)

	am.Set(AttrEnabled, false)
	assert.Equal(t, []AttributeName{AttrEnabled}, changes)

	am.Set(AttrMax, 100.0)
	assert.Equal(t, []AttributeName{AttrEnabled, AttrMax}, changes)
}

func TestObjectItemOrderPreserved(t *testing.T) {
	obj := NewObject("world.clock", "clock")
	obj.AddProperty(NewProperty("hour", wire.PropertyTypeInteger, PropertyWritable, int64(0)))
	obj.AddMethod(NewMethod("tick", func(args []any) (any, error) { return nil, nil }))
	obj.AddEvent(NewEvent("ticked"))

	names := make([]string, 0, 3)
	for _, item := range obj.Items() {
		names = append(names, item.ItemName())
	}
	assert.Equal(t, []string{"hour", "tick", "ticked"}, names)
}

func TestObjectRefCounting(t *testing.T) {
	obj := NewObject("world.clock", "clock")
	assert.Equal(t, 1, obj.Acquire())
	assert.Equal(t, 2, obj.Acquire())
	assert.Equal(t, 1, obj.Release())
	assert.Equal(t, 0, obj.Release())
	assert.Equal(t, 0, obj.Release(), "release below zero must clamp")
}

func TestEventConnectDisconnect(t *testing.T) {
	e := NewEvent("changed")

	var got []any
	tok := e.Connect(func(args ...any) { got = append(got, args...) })

	e.Emit("a")
	assert.Equal(t, []any{"a"}, got)

	e.Disconnect(tok)
	e.Emit("b")
	assert.Equal(t, []any{"a"}, got, "disconnected handler must not fire")
}

func TestTableModelCellsScopedToRegion(t *testing.T) {
	data := [][]string{
		{"r0c0", "r0c1"},
		{"r1c0", "r1c1"},
		{"r2c0", "r2c1"},
	}
	tm := NewTableModel([]string{"a", "b"}, func(col, row int) string { return data[row][col] })
	tm.SetRowCount(len(data))

	cells := tm.Cells(Region{ColumnMin: 0, ColumnMax: 1, RowMin: 0, RowMax: 1})
	assert.Len(t, cells, 4)
	assert.Equal(t, "r1c1", cells[[2]int{1, 1}])
	_, outOfRegion := cells[[2]int{0, 2}]
	assert.False(t, outOfRegion, "row 2 is outside the requested region")
}

func TestTableModelIndependentColumnHeaderSubscribers(t *testing.T) {
	tm := NewTableModel([]string{"a"}, func(col, row int) string { return "x" })

	var headersA, headersB []string
	tm.SubscribeColumnHeaders(func(h []string) { headersA = h })
	tokB := tm.SubscribeColumnHeaders(func(h []string) { headersB = h })
	tm.UnsubscribeColumnHeaders(tokB)

	tm.SetColumnHeaders([]string{"b"})
	assert.Equal(t, []string{"b"}, headersA)
	assert.Nil(t, headersB, "unsubscribed listener must not be notified")
}
