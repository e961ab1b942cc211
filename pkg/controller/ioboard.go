package controller

import "sync"

// IOBoard is a minimal InputController/OutputController backed by
// in-memory maps, channel 0 only. It is the domain-side counterpart
// a hardware kernel drives; real command stations layer richer
// decoder bookkeeping on top of the same shape.
type IOBoard struct {
	mu sync.RWMutex

	inputMin, inputMax   uint32
	outputMin, outputMax uint32

	inputs  map[uint32]TriState
	outputs map[uint32]bool

	outputStates map[uint32]TriState

	onInputChanged      func(address uint32, value TriState)
	onOutputValueNeeded func(address uint32, value bool)
	onOutputConfirmed   func(address uint32, value TriState)
}

// NewIOBoard creates a board whose single channel accepts addresses
// in [min, max] for both inputs and outputs.
func NewIOBoard(min, max uint32) *IOBoard {
	return &IOBoard{
		inputMin: min, inputMax: max,
		outputMin: min, outputMax: max,
		inputs:       make(map[uint32]TriState),
		outputs:      make(map[uint32]bool),
		outputStates: make(map[uint32]TriState),
	}
}

// SetOnInputChanged installs the callback fired when a kernel reports
// a new input reading via UpdateInputValue.
func (b *IOBoard) SetOnInputChanged(fn func(address uint32, value TriState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onInputChanged = fn
}

// SetOnOutputValueNeeded installs the callback a kernel's fire-and-forget
// set_output path invokes via SetOutputValue.
func (b *IOBoard) SetOnOutputValueNeeded(fn func(address uint32, value bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onOutputValueNeeded = fn
}

// SetOnOutputConfirmed installs the callback fired when a kernel
// echoes back the output state it actually applied, via
// UpdateOutputValue.
func (b *IOBoard) SetOnOutputConfirmed(fn func(address uint32, value TriState)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onOutputConfirmed = fn
}

func (b *IOBoard) InputAddressMinMax(channel uint32) (uint32, uint32) { return b.inputMin, b.inputMax }
func (b *IOBoard) OutputAddressMinMax(channel uint32) (uint32, uint32) {
	return b.outputMin, b.outputMax
}

func (b *IOBoard) AddInput(channel, address uint32) error {
	if err := ValidateAddress(address, b.inputMin, b.inputMax); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.inputs[address]; !exists {
		b.inputs[address] = TriStateUndefined
	}
	return nil
}

func (b *IOBoard) RemoveInput(channel, address uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inputs, address)
	return nil
}

func (b *IOBoard) AddOutput(channel, address uint32) error {
	if err := ValidateAddress(address, b.outputMin, b.outputMax); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.outputs[address]; !exists {
		b.outputs[address] = false
	}
	return nil
}

func (b *IOBoard) RemoveOutput(channel, address uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.outputs, address)
	return nil
}

// KnownInputAddresses returns every address currently tracked,
// used by a kernel to prime its cache after the feature handshake.
// The single-channel IOBoard ignores channel.
func (b *IOBoard) KnownInputAddresses(channel uint32) []uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]uint32, 0, len(b.inputs))
	for addr := range b.inputs {
		out = append(out, addr)
	}
	return out
}

// KnownOutputAddresses mirrors KnownInputAddresses for outputs.
func (b *IOBoard) KnownOutputAddresses(channel uint32) []uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]uint32, 0, len(b.outputs))
	for addr := range b.outputs {
		out = append(out, addr)
	}
	return out
}

// InputSimulateChange is satisfied via the kernel's own simulation
// mode; a bare IOBoard has no transport to simulate over, so it
// forwards to onInputChanged with a toggled value directly.
func (b *IOBoard) InputSimulateChange(channel, address uint32) {
	b.mu.Lock()
	cur, known := b.inputs[address]
	next := TriStateTrue
	if known && cur == TriStateTrue {
		next = TriStateFalse
	}
	b.inputs[address] = next
	cb := b.onInputChanged
	b.mu.Unlock()
	if cb != nil {
		cb(address, next)
	}
}

// UpdateInputValue records a new input reading and notifies the
// subscriber, skipping the call if the value is unchanged.
func (b *IOBoard) UpdateInputValue(channel, address uint32, value TriState) {
	b.mu.Lock()
	if cur, ok := b.inputs[address]; ok && cur == value {
		b.mu.Unlock()
		return
	}
	b.inputs[address] = value
	cb := b.onInputChanged
	b.mu.Unlock()
	if cb != nil {
		cb(address, value)
	}
}

// SetOutputValue applies a client-requested output value and forwards
// it to the kernel via onOutputValueNeeded (fire-and-forget).
func (b *IOBoard) SetOutputValue(channel, address uint32, value bool) {
	b.mu.Lock()
	b.outputs[address] = value
	cb := b.onOutputValueNeeded
	b.mu.Unlock()
	if cb != nil {
		cb(address, value)
	}
}

// UpdateOutputValue records the output state a kernel has confirmed
// it actually applied and notifies the subscriber, skipping the call
// if the confirmed state is unchanged. This is the receive-direction
// counterpart to SetOutputValue: a domain object requests a value via
// SetOutputValue, and the kernel confirms what it set via
// UpdateOutputValue once the device echoes it back.
func (b *IOBoard) UpdateOutputValue(channel, address uint32, value TriState) {
	b.mu.Lock()
	if cur, ok := b.outputStates[address]; ok && cur == value {
		b.mu.Unlock()
		return
	}
	b.outputStates[address] = value
	cb := b.onOutputConfirmed
	b.mu.Unlock()
	if cb != nil {
		cb(address, value)
	}
}

// InputValue returns the currently cached reading for address.
func (b *IOBoard) InputValue(address uint32) TriState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inputs[address]
}

// OutputValue returns the currently cached value for address.
func (b *IOBoard) OutputValue(address uint32) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.outputs[address]
}

// OutputState returns the last output state confirmed by a kernel via
// UpdateOutputValue, TriStateUndefined if none has been reported yet.
func (b *IOBoard) OutputState(address uint32) TriState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.outputStates[address]
}
