package traintasticdiy

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traintastic/traintastic-go/pkg/controller"
)

type fakeIO struct {
	mu      sync.Mutex
	receive func(data []byte)
	sent    [][]byte
}

func (f *fakeIO) Start(receive func(data []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receive = receive
	return nil
}

func (f *fakeIO) Stop() error { return nil }

func (f *fakeIO) Send(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, data)
	return nil
}

func (f *fakeIO) snapshot() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

func newTestKernel(t *testing.T) (*Kernel, *fakeIO, *controller.IOBoard) {
	t.Helper()
	board := controller.NewIOBoard(1, 16)
	require.NoError(t, board.AddInput(0, 5))
	require.NoError(t, board.AddOutput(0, 7))

	io := &fakeIO{}
	k := New(nil, zerolog.Nop(), board, board, 0, true)
	k.SetIOHandler(io)
	require.NoError(t, k.Start())
	t.Cleanup(func() { _ = k.Stop() })
	return k, io, board
}

func TestFeatureHandshakeSentOnStart(t *testing.T) {
	_, io, _ := newTestKernel(t)

	require.Eventually(t, func() bool { return len(io.snapshot()) >= 2 }, time.Second, 5*time.Millisecond)
	sent := io.snapshot()

	m0, err := decode(sent[0])
	require.NoError(t, err)
	assert.Equal(t, OpCodeGetInfo, m0.op)

	m1, err := decode(sent[1])
	require.NoError(t, err)
	assert.Equal(t, OpCodeGetFeatures, m1.op)
}

func TestSetInputStateDroppedBeforeFeatures(t *testing.T) {
	k, _, board := newTestKernel(t)

	k.Deliver(encode(OpCodeSetInputState, encodeAddrState(5, StateTrue)))

	require.Never(t, func() bool { return board.InputValue(5) == controller.TriStateTrue }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestFeaturesPrimesCacheForKnownAddresses(t *testing.T) {
	k, io, _ := newTestKernel(t)

	k.Deliver(encode(OpCodeFeatures, []byte{0x01, 0x01, 0x00, 0x00}))

	require.Eventually(t, func() bool {
		for _, frame := range io.snapshot() {
			m, err := decode(frame)
			if err == nil && m.op == OpCodeGetInputState {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestSetInputStateUpdatesControllerAfterFeatures(t *testing.T) {
	k, _, board := newTestKernel(t)
	k.Deliver(encode(OpCodeFeatures, []byte{0x01, 0x01, 0x00, 0x00}))

	require.Eventually(t, func() bool {
		k.mu.Lock()
		ready := k.featureFlagsSet
		k.mu.Unlock()
		return ready
	}, time.Second, 5*time.Millisecond)

	k.Deliver(encode(OpCodeSetInputState, encodeAddrState(5, StateTrue)))

	require.Eventually(t, func() bool { return board.InputValue(5) == controller.TriStateTrue }, time.Second, 5*time.Millisecond)
}

func TestSetInputStateIdempotentCache(t *testing.T) {
	k, _, board := newTestKernel(t)
	k.Deliver(encode(OpCodeFeatures, []byte{0x01, 0x01, 0x00, 0x00}))
	require.Eventually(t, func() bool {
		k.mu.Lock()
		defer k.mu.Unlock()
		return k.featureFlagsSet
	}, time.Second, 5*time.Millisecond)

	var changes int
	var mu sync.Mutex
	board.SetOnInputChanged(func(address uint32, value controller.TriState) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	k.Deliver(encode(OpCodeSetInputState, encodeAddrState(5, StateTrue)))
	k.Deliver(encode(OpCodeSetInputState, encodeAddrState(5, StateTrue)))

	require.Eventually(t, func() bool { return board.InputValue(5) == controller.TriStateTrue }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, changes, "repeating the same wire state must not re-fire the controller callback")
	mu.Unlock()
}

func TestSimulateInputChangeTogglesFromUnseenAddressToTrue(t *testing.T) {
	k, _, board := newTestKernel(t)
	k.Deliver(encode(OpCodeFeatures, []byte{0x01, 0x01, 0x00, 0x00}))
	require.Eventually(t, func() bool {
		k.mu.Lock()
		defer k.mu.Unlock()
		return k.featureFlagsSet
	}, time.Second, 5*time.Millisecond)

	k.SimulateInputChange(5)
	require.Eventually(t, func() bool { return board.InputValue(5) == controller.TriStateTrue }, time.Second, 5*time.Millisecond)

	k.SimulateInputChange(5)
	require.Eventually(t, func() bool { return board.InputValue(5) == controller.TriStateFalse }, time.Second, 5*time.Millisecond)
}

func TestSetOutputFireAndForgetSendsSetOutputState(t *testing.T) {
	k, io, _ := newTestKernel(t)

	k.SetOutput(7, true)

	require.Eventually(t, func() bool {
		for _, frame := range io.snapshot() {
			m, err := decode(frame)
			if err != nil || m.op != OpCodeSetOutputState {
				continue
			}
			addr, state, err := decodeAddrState(m.payload)
			if err == nil && addr == 7 && state == StateTrue {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestSetOutputStateConfirmsControllerAfterFeatures(t *testing.T) {
	k, _, board := newTestKernel(t)
	k.Deliver(encode(OpCodeFeatures, []byte{0x01, 0x01, 0x00, 0x00}))

	require.Eventually(t, func() bool {
		k.mu.Lock()
		ready := k.featureFlagsSet
		k.mu.Unlock()
		return ready
	}, time.Second, 5*time.Millisecond)

	k.Deliver(encode(OpCodeSetOutputState, encodeAddrState(7, StateTrue)))

	require.Eventually(t, func() bool { return board.OutputState(7) == controller.TriStateTrue }, time.Second, 5*time.Millisecond)
}

func TestSetOutputStateIdempotentCache(t *testing.T) {
	k, _, board := newTestKernel(t)
	k.Deliver(encode(OpCodeFeatures, []byte{0x01, 0x01, 0x00, 0x00}))
	require.Eventually(t, func() bool {
		k.mu.Lock()
		defer k.mu.Unlock()
		return k.featureFlagsSet
	}, time.Second, 5*time.Millisecond)

	var changes int
	var mu sync.Mutex
	board.SetOnOutputConfirmed(func(address uint32, value controller.TriState) {
		mu.Lock()
		changes++
		mu.Unlock()
	})

	k.Deliver(encode(OpCodeSetOutputState, encodeAddrState(7, StateTrue)))
	k.Deliver(encode(OpCodeSetOutputState, encodeAddrState(7, StateTrue)))

	require.Eventually(t, func() bool { return board.OutputState(7) == controller.TriStateTrue }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, changes, "repeating the same wire state must not re-fire the controller callback")
	mu.Unlock()
}

func TestReceivingClientOnlyOpcodeIsDroppedNotFatal(t *testing.T) {
	k, _, _ := newTestKernel(t)
	assert.NotPanics(t, func() {
		k.Deliver(encode(OpCodeGetInfo, nil))
	})
}

func TestChecksumMismatchDropsFrame(t *testing.T) {
	frame := encode(OpCodeHeartbeat, nil)
	frame[len(frame)-1] ^= 0xFF
	_, err := decode(frame)
	require.Error(t, err)
}
