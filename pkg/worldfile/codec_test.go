package worldfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileThenReadFileRoundTripsDocuments(t *testing.T) {
	codec := NewCTWCodec()
	path := filepath.Join(t.TempDir(), "layout.ctw")

	world := NewWorld()
	world.SetDocument("world.json", []byte(`{"name":"Test Layout","uuid":"11111111-1111-1111-1111-111111111111"}`))
	world.SetDocument("board.1.json", []byte(`{"id":1,"width":20,"height":10}`))

	require.NoError(t, codec.WriteFile(path, world))

	got, err := codec.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"board.1.json", "world.json"}, got.DocumentNames())

	data, ok := got.Document("world.json")
	require.True(t, ok)
	assert.JSONEq(t, `{"name":"Test Layout","uuid":"11111111-1111-1111-1111-111111111111"}`, string(data))
}

func TestWriteFileOverwritesExistingAtomically(t *testing.T) {
	codec := NewCTWCodec()
	path := filepath.Join(t.TempDir(), "layout.ctw")

	first := NewWorld()
	first.SetDocument("world.json", []byte(`{"name":"First"}`))
	require.NoError(t, codec.WriteFile(path, first))

	second := NewWorld()
	second.SetDocument("world.json", []byte(`{"name":"Second"}`))
	require.NoError(t, codec.WriteFile(path, second))

	got, err := codec.ReadFile(path)
	require.NoError(t, err)
	data, _ := got.Document("world.json")
	assert.JSONEq(t, `{"name":"Second"}`, string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should not survive a successful write")
}

func TestDeleteFileIsIdempotent(t *testing.T) {
	codec := NewCTWCodec()
	path := filepath.Join(t.TempDir(), "layout.ctw")

	world := NewWorld()
	world.SetDocument("world.json", []byte(`{}`))
	require.NoError(t, codec.WriteFile(path, world))

	require.NoError(t, codec.DeleteFile(path))
	assert.NoError(t, codec.DeleteFile(path), "deleting an already-removed file must not error")
}

func TestReadFileRejectsMissingPath(t *testing.T) {
	codec := NewCTWCodec()
	_, err := codec.ReadFile(filepath.Join(t.TempDir(), "missing.ctw"))
	assert.Error(t, err)
}
