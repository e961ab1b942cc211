package session_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintastic/traintastic-go/pkg/auth"
	"github.com/traintastic/traintastic-go/pkg/logging"
	"github.com/traintastic/traintastic-go/pkg/mirror"
	"github.com/traintastic/traintastic-go/pkg/model"
	"github.com/traintastic/traintastic-go/pkg/registry"
	"github.com/traintastic/traintastic-go/pkg/session"
	"github.com/traintastic/traintastic-go/pkg/wire"
)

func newTestServer(t *testing.T) (*session.Server, *registry.Registry) {
	t.Helper()

	factory := registry.NewFactory()
	factory.Register("clock", func(id string) (*model.Object, error) {
		obj := model.NewObject(id, "clock")
		obj.AddProperty(model.NewProperty("hour", wire.PropertyTypeInteger, model.PropertyWritable|model.PropertyStore, int64(12)))
		return obj, nil
	})
	reg := registry.NewRegistry(factory)
	_, err := reg.Get("clock", "clock", nil)
	require.NoError(t, err)

	creds := auth.NewStore()
	creds.Set(auth.Credential{Username: "alice", Digest: auth.HashPassword("hunter2")})

	srv := session.NewServer(session.ServerConfig{
		Address:     "127.0.0.1:0",
		Credentials: creds,
		Registry:    reg,
		Logger:      logging.NoopLogger{},
		Log:         zerolog.Nop(),
	})
	require.NoError(t, srv.Start())
	t.Cleanup(func() { srv.Stop() })

	return srv, reg
}

func TestServerServesLoginAndGetObjectEndToEnd(t *testing.T) {
	srv, _ := newTestServer(t)

	client, err := mirror.Dial(srv.Addr().String(), zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Login("alice", auth.HashPassword("hunter2")))
	_, err = client.NewSession()
	require.NoError(t, err)

	obj, err := client.GetObject("clock")
	require.NoError(t, err)
	assert.Equal(t, "clock", obj.ClassID())

	prop, ok := obj.Property("hour")
	require.True(t, ok)
	assert.Equal(t, int64(12), prop.Value())

	assert.Equal(t, 1, srv.ConnectionCount())
}

func TestServerRejectsBadLogin(t *testing.T) {
	srv, _ := newTestServer(t)

	client, err := mirror.Dial(srv.Addr().String(), zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	err = client.Login("alice", auth.HashPassword("wrong"))
	assert.Error(t, err)
}

func TestServerConnectionCountTracksLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, 0, srv.ConnectionCount())

	client, err := mirror.Dial(srv.Addr().String(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, client.Ping())
	assert.Equal(t, 1, srv.ConnectionCount())

	client.Close()
	require.Eventually(t, func() bool { return srv.ConnectionCount() == 0 }, time.Second, 5*time.Millisecond)
}
