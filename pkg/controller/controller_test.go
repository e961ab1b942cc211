package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintastic/traintastic-go/pkg/wire"
)

func TestValidateAddressOutOfRange(t *testing.T) {
	require.NoError(t, ValidateAddress(5, 1, 10))
	err := ValidateAddress(11, 1, 10)
	require.Error(t, err)
	assert.Equal(t, wire.ErrorKindAddressOutOfRange, wire.KindOf(err))
}

func TestIOBoardAddInputRejectsOutOfRange(t *testing.T) {
	board := NewIOBoard(1, 16)
	require.NoError(t, board.AddInput(0, 8))
	err := board.AddInput(0, 99)
	require.Error(t, err)
}

func TestIOBoardUpdateInputValueIdempotent(t *testing.T) {
	board := NewIOBoard(1, 16)
	require.NoError(t, board.AddInput(0, 8))

	var changes int
	board.SetOnInputChanged(func(address uint32, value TriState) { changes++ })

	board.UpdateInputValue(0, 8, TriStateTrue)
	assert.Equal(t, 1, changes)
	board.UpdateInputValue(0, 8, TriStateTrue)
	assert.Equal(t, 1, changes, "re-reporting the same value must not fire a second callback")

	board.UpdateInputValue(0, 8, TriStateFalse)
	assert.Equal(t, 2, changes)
}

func TestIOBoardInputSimulateChangeTogglesFromUnknown(t *testing.T) {
	board := NewIOBoard(1, 16)
	require.NoError(t, board.AddInput(0, 8))

	board.InputSimulateChange(0, 8)
	assert.Equal(t, TriStateTrue, board.InputValue(8))

	board.InputSimulateChange(0, 8)
	assert.Equal(t, TriStateFalse, board.InputValue(8))
}
