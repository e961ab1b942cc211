package controller

import "github.com/traintastic/traintastic-go/pkg/wire"

// DecoderFlags is a bitset of the fields a decoder_changed callback
// may be reporting.
type DecoderFlags uint8

const (
	DecoderFlagEmergencyStop DecoderFlags = 1 << iota
	DecoderFlagDirection
	DecoderFlagThrottle
	DecoderFlagSpeedSteps
	DecoderFlagFunctionValue
)

// Decoder is the minimal shape a DecoderController needs from a
// locomotive decoder domain object: its stable address. It exposes no
// speed step count or other decoder state.
type Decoder interface {
	Address() uint16
}

// DecoderController is implemented by any domain object capable of
// forwarding decoder state to a kernel — typically a command station.
// Calls must no-op (not error) when the controller is offline; an
// offline controller still mutates domain state synchronously, it
// simply has nothing to forward.
type DecoderController interface {
	AddDecoder(d Decoder) error
	RemoveDecoder(d Decoder) error
	DecoderChanged(d Decoder, flags DecoderFlags, fnNumber uint8)
}

// InputController is implemented by any domain object capable of
// tracking binary sensor inputs on one or more channels (e.g. a bus
// segment, a loconet channel).
type InputController interface {
	InputAddressMinMax(channel uint32) (min, max uint32)
	AddInput(channel uint32, address uint32) error
	RemoveInput(channel uint32, address uint32) error
	InputSimulateChange(channel uint32, address uint32)
	UpdateInputValue(channel uint32, address uint32, value TriState)
	KnownInputAddresses(channel uint32) []uint32
}

// OutputController mirrors InputController for binary outputs
// (signals, turnouts, accessory decoders addressed as a single bit).
type OutputController interface {
	OutputAddressMinMax(channel uint32) (min, max uint32)
	AddOutput(channel uint32, address uint32) error
	RemoveOutput(channel uint32, address uint32) error
	SetOutputValue(channel uint32, address uint32, value bool)
	UpdateOutputValue(channel uint32, address uint32, value TriState)
	KnownOutputAddresses(channel uint32) []uint32
}

// ValidateAddress fails with ErrorKindAddressOutOfRange if address
// falls outside [min, max]. Every add_* implementation should call
// this before admitting a new address.
func ValidateAddress(address, min, max uint32) error {
	if address < min || address > max {
		return wire.NewError(wire.ErrorKindAddressOutOfRange, "address %d outside channel range [%d, %d]", address, min, max)
	}
	return nil
}
