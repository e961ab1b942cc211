package controller

// TriState is a three-valued signal reading: known-false, known-true,
// or not yet known / contradictory.
type TriState uint8

const (
	TriStateUndefined TriState = iota
	TriStateFalse
	TriStateTrue
)

func (t TriState) String() string {
	switch t {
	case TriStateFalse:
		return "False"
	case TriStateTrue:
		return "True"
	default:
		return "Undefined"
	}
}

// FromBool converts a plain boolean to its corresponding TriState.
func FromBool(b bool) TriState {
	if b {
		return TriStateTrue
	}
	return TriStateFalse
}
