package traintasticdiy

// OpCode is the one-byte message discriminator every TraintasticDIY
// frame starts with.
type OpCode byte

const (
	OpCodeHeartbeat       OpCode = 0x00
	OpCodeGetInfo         OpCode = 0x01
	OpCodeInfo            OpCode = 0x02
	OpCodeGetFeatures     OpCode = 0x03
	OpCodeFeatures        OpCode = 0x04
	OpCodeGetInputState   OpCode = 0x10
	OpCodeSetInputState   OpCode = 0x11
	OpCodeGetOutputState  OpCode = 0x20
	OpCodeSetOutputState  OpCode = 0x21
)

func (o OpCode) String() string {
	switch o {
	case OpCodeHeartbeat:
		return "Heartbeat"
	case OpCodeGetInfo:
		return "GetInfo"
	case OpCodeInfo:
		return "Info"
	case OpCodeGetFeatures:
		return "GetFeatures"
	case OpCodeFeatures:
		return "Features"
	case OpCodeGetInputState:
		return "GetInputState"
	case OpCodeSetInputState:
		return "SetInputState"
	case OpCodeGetOutputState:
		return "GetOutputState"
	case OpCodeSetOutputState:
		return "SetOutputState"
	default:
		return "Unknown"
	}
}

// InputOutputState is the four-valued wire representation of a single
// input or output bit. It is distinct from controller.TriState because
// the wire also carries an explicit Invalid value, which maps to
// TriStateUndefined rather than having its own domain-side state.
type InputOutputState byte

const (
	StateFalse     InputOutputState = 0
	StateTrue      InputOutputState = 1
	StateUndefined InputOutputState = 2
	StateInvalid   InputOutputState = 3
)

// FeatureFlagsN is the four-byte feature bitmask carried by a Features
// reply. Each byte is an independent bitmask; only bit 0 of bytes 0
// and 1 is currently assigned (input/output support).
type FeatureFlagsN [4]byte

const (
	featureBitInput  = 1 << 0
	featureBitOutput = 1 << 0
)

func (f FeatureFlagsN) hasFeatureInput() bool  { return f[0]&featureBitInput != 0 }
func (f FeatureFlagsN) hasFeatureOutput() bool { return f[1]&featureBitOutput != 0 }
