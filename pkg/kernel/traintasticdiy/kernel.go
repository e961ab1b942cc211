package traintasticdiy

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/traintastic/traintastic-go/pkg/controller"
	"github.com/traintastic/traintastic-go/pkg/kernel"
)

// Kernel drives the TraintasticDIY hardware protocol: feature
// handshake, cache priming, and the input/output cache that backs
// update_input_value / set_output_value.
type Kernel struct {
	*kernel.Kernel

	input   controller.InputController
	output  controller.OutputController
	channel uint32

	simulation bool

	mu              sync.Mutex
	featureFlagsSet bool
	featureFlags    FeatureFlagsN
	inputCache      map[uint16]InputOutputState
	outputCache     map[uint16]InputOutputState
}

// New creates a stopped kernel bound to the given controllers. channel
// identifies which IO channel of the controllers this kernel owns;
// simulation, when true, allows SimulateInputChange to inject synthetic
// traffic instead of requiring a real transport.
func New(postToMain func(fn func()), log zerolog.Logger, input controller.InputController, output controller.OutputController, channel uint32, simulation bool) *Kernel {
	k := &Kernel{
		Kernel:      kernel.New(postToMain, log),
		input:       input,
		output:      output,
		channel:     channel,
		simulation:  simulation,
		inputCache:  make(map[uint16]InputOutputState),
		outputCache: make(map[uint16]InputOutputState),
	}
	k.Kernel.SetReceiveHandler(k.receive)
	return k
}

// Start brings the generic kernel up, then sends the feature handshake
// (GetInfo followed by GetFeatures) over the newly-started IO handler.
func (k *Kernel) Start() error {
	if err := k.Kernel.Start(); err != nil {
		return err
	}
	k.mu.Lock()
	k.featureFlagsSet = false
	k.mu.Unlock()
	k.PostSend(encodeGetInfo())
	k.PostSend(encodeGetFeatures())
	return nil
}

// Stop additionally clears handshake state so a restarted kernel
// re-runs the full feature negotiation.
func (k *Kernel) Stop() error {
	k.mu.Lock()
	k.featureFlagsSet = false
	k.mu.Unlock()
	return k.Kernel.Stop()
}

// SetOutput is the fire-and-forget send side: it transmits
// SetOutputState and returns immediately, without awaiting an
// acknowledgement. The outbound state is only confirmed once the
// device echoes a subsequent SetOutputState.
func (k *Kernel) SetOutput(addr uint16, value bool) {
	state := StateFalse
	if value {
		state = StateTrue
	}
	k.PostSend(encodeSetOutputState(addr, state))
}

// SimulateInputChange posts a synthetic SetInputState into the
// kernel's own receive path, toggling the cached state for addr. An
// address with no cached value is treated as currently false, so the
// first simulated change on a never-seen address always produces True.
func (k *Kernel) SimulateInputChange(addr uint16) {
	if !k.simulation {
		return
	}
	k.mu.Lock()
	cur, known := k.inputCache[addr]
	next := StateTrue
	if known && cur == StateTrue {
		next = StateFalse
	}
	k.mu.Unlock()
	k.Deliver(encode(OpCodeSetInputState, encodeAddrState(addr, next)))
}

func encodeAddrState(addr uint16, state InputOutputState) []byte {
	payload := make([]byte, 3)
	payload[0] = byte(addr >> 8)
	payload[1] = byte(addr)
	payload[2] = byte(state)
	return payload
}

// receive is the kernel's single-threaded wire dispatch, installed via
// kernel.Kernel.SetReceiveHandler. It runs on the kernel loop.
func (k *Kernel) receive(data []byte) {
	msg, err := decode(data)
	if err != nil {
		log := k.Log()
		log.Warn().Err(err).Msg("malformed frame, dropped")
		return
	}

	switch msg.op {
	case OpCodeHeartbeat:
		// liveness already restarted by the generic kernel's receive path

	case OpCodeInfo:
		text, err := decodeInfo(msg.payload)
		if err != nil {
			log := k.Log()
			log.Warn().Err(err).Msg("malformed Info payload, dropped")
			return
		}
		log := k.Log()
		k.PostToMain(func() { log.Info().Str("text", text).Msg("device info") })

	case OpCodeFeatures:
		flags, err := decodeFeatures(msg.payload)
		if err != nil {
			log := k.Log()
			log.Warn().Err(err).Msg("malformed Features payload, dropped")
			return
		}
		k.onFeatures(flags)

	case OpCodeSetInputState:
		k.onSetState(msg.payload, true)

	case OpCodeSetOutputState:
		k.onSetState(msg.payload, false)

	case OpCodeGetInfo, OpCodeGetFeatures, OpCodeGetInputState, OpCodeGetOutputState:
		log := k.Log()
		log.Error().Str("op", msg.op.String()).Msg("protocol violation: client-only opcode received, dropped")

	default:
		log := k.Log()
		log.Warn().Str("op", msg.op.String()).Msg("unrecognized opcode, dropped")
	}
}

func (k *Kernel) onFeatures(flags FeatureFlagsN) {
	k.mu.Lock()
	k.featureFlags = flags
	k.featureFlagsSet = true
	k.mu.Unlock()

	if flags.hasFeatureInput() && k.input != nil {
		for _, addr := range k.input.KnownInputAddresses(k.channel) {
			k.PostSend(encodeGetInputState(uint16(addr)))
		}
	}
	if flags.hasFeatureOutput() && k.output != nil {
		for _, addr := range k.output.KnownOutputAddresses(k.channel) {
			k.PostSend(encodeGetOutputState(uint16(addr)))
		}
	}
}

func (k *Kernel) onSetState(payload []byte, isInput bool) {
	k.mu.Lock()
	ready := k.featureFlagsSet
	k.mu.Unlock()
	if !ready {
		return
	}

	addr16, state, err := decodeAddrState(payload)
	if err != nil {
		log := k.Log()
		log.Warn().Err(err).Msg("malformed SetState payload, dropped")
		return
	}

	if !k.addressInRange(addr16, isInput) {
		return
	}

	k.mu.Lock()
	cache := k.inputCache
	if !isInput {
		cache = k.outputCache
	}
	if cur, known := cache[addr16]; known && cur == state {
		k.mu.Unlock()
		return
	}
	cache[addr16] = state
	k.mu.Unlock()

	addr := uint32(addr16)
	if state == StateInvalid {
		log := k.Log()
		log.Warn().Uint32("address", addr).Bool("input", isInput).Msg("device reported invalid state")
		return
	}

	tri := triStateOf(state)
	log := k.Log()
	if isInput {
		ctrl := k.input
		k.PostToMain(func() {
			if ctrl != nil {
				ctrl.UpdateInputValue(k.channel, addr, tri)
			} else {
				log.Warn().Uint32("address", addr).Msg("input state for unknown controller")
			}
		})
	} else {
		// Output state echoes confirm what the device actually applied,
		// the same way an input reading confirms a sensor change.
		ctrl := k.output
		k.PostToMain(func() {
			if ctrl != nil {
				ctrl.UpdateOutputValue(k.channel, addr, tri)
			} else {
				log.Warn().Uint32("address", addr).Msg("output state for unknown controller")
			}
		})
	}
}

func (k *Kernel) addressInRange(addr16 uint16, isInput bool) bool {
	addr := uint32(addr16)
	if isInput {
		if k.input == nil {
			return false
		}
		min, max := k.input.InputAddressMinMax(k.channel)
		return addr >= min && addr <= max
	}
	if k.output == nil {
		return false
	}
	min, max := k.output.OutputAddressMinMax(k.channel)
	return addr >= min && addr <= max
}

func triStateOf(s InputOutputState) controller.TriState {
	switch s {
	case StateFalse:
		return controller.TriStateFalse
	case StateTrue:
		return controller.TriStateTrue
	default:
		return controller.TriStateUndefined
	}
}
