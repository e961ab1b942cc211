package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

func TestFactoryUnknownClass(t *testing.T) {
	f := NewFactory()
	_, err := f.Build("world", "world")
	require.Error(t, err)
}

func TestRegistryGetConstructsOnce(t *testing.T) {
	f := NewFactory()
	builds := 0
	f.Register("clock", func(objectID string) (*model.Object, error) {
		builds++
		return model.NewObject(objectID, "clock"), nil
	})

	r := NewRegistry(f)
	obj1, err := r.Get("clock", "world.clock", nil)
	require.NoError(t, err)
	obj2, err := r.Get("clock", "world.clock", nil)
	require.NoError(t, err)

	assert.Same(t, obj1, obj2)
	assert.Equal(t, 1, builds)
}

func TestRegistryRefCountingDestroysAtZero(t *testing.T) {
	f := NewFactory()
	f.Register("clock", func(objectID string) (*model.Object, error) {
		return model.NewObject(objectID, "clock"), nil
	})
	r := NewRegistry(f)

	closed := false
	obj, err := r.Get("clock", "world.clock", func() { closed = true })
	require.NoError(t, err)
	obj.Acquire() // session A
	// second session re-gets the same live object
	_, err = r.Get("clock", "world.clock", nil)
	require.NoError(t, err)
	r.Acquire("world.clock") // session B, simulated directly

	assert.Equal(t, 1, r.Len())

	r.Release("world.clock") // session A releases
	assert.False(t, closed)
	assert.Equal(t, 1, r.Len())

	r.Release("world.clock") // session B releases, last reference
	assert.True(t, closed)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryLookupMissing(t *testing.T) {
	r := NewRegistry(NewFactory())
	_, ok := r.Lookup("world.clock")
	assert.False(t, ok)
}

func TestLookupOrErrUnknownObject(t *testing.T) {
	r := NewRegistry(NewFactory())
	_, err := r.LookupOrErr("world.clock")
	require.Error(t, err)
	assert.Equal(t, wire.ErrorKindUnknownObject, wire.KindOf(err))
}

func TestBroadcasterFansOutPropertyChanges(t *testing.T) {
	f := NewFactory()
	f.Register("clock", func(objectID string) (*model.Object, error) {
		obj := model.NewObject(objectID, "clock")
		obj.AddProperty(model.NewProperty("hour", wire.PropertyTypeInteger, model.PropertyWritable, int64(0)))
		return obj, nil
	})
	r := NewRegistry(f)

	obj, err := r.Get("clock", "world.clock", nil)
	require.NoError(t, err)

	bc, ok := r.Broadcaster("world.clock")
	require.True(t, ok)

	var gotA, gotB []PropertyChange
	tokA := bc.SubscribeProperty(func(c PropertyChange) { gotA = append(gotA, c) })
	bc.SubscribeProperty(func(c PropertyChange) { gotB = append(gotB, c) })

	prop, _ := obj.Property("hour")
	require.NoError(t, prop.SetValue(int64(5)))

	require.Len(t, gotA, 1)
	assert.Equal(t, "world.clock", gotA[0].ObjectID)
	assert.Equal(t, "hour", gotA[0].Name)
	assert.Equal(t, int64(5), gotA[0].Value)
	require.Len(t, gotB, 1)

	bc.UnsubscribeProperty(tokA)
	require.NoError(t, prop.SetValue(int64(6)))
	assert.Len(t, gotA, 1, "unsubscribed handler must not receive further changes")
	assert.Len(t, gotB, 2)
}
