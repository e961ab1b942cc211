package wire

// Flags is the header's bit-0..2 message kind plus bit-7 error marker.
// Exactly one of FlagRequest, FlagResponse, FlagEvent is set.
type Flags uint8

const (
	FlagRequest  Flags = 1 << 0
	FlagResponse Flags = 1 << 1
	FlagEvent    Flags = 1 << 2
	FlagError    Flags = 1 << 7
)

// IsRequest reports whether the request bit is set.
func (f Flags) IsRequest() bool { return f&FlagRequest != 0 }

// IsResponse reports whether the response bit is set.
func (f Flags) IsResponse() bool { return f&FlagResponse != 0 }

// IsEvent reports whether the event bit is set.
func (f Flags) IsEvent() bool { return f&FlagEvent != 0 }

// IsError reports whether the error bit is set. Only meaningful on
// responses.
func (f Flags) IsError() bool { return f&FlagError != 0 }

// String renders the flag bits for diagnostics.
func (f Flags) String() string {
	switch {
	case f.IsRequest():
		return "request"
	case f.IsResponse() && f.IsError():
		return "response(error)"
	case f.IsResponse():
		return "response"
	case f.IsEvent():
		return "event"
	default:
		return "unknown"
	}
}

// Command identifies the operation carried by a frame.
type Command uint8

const (
	CommandUnknown Command = iota

	// Session lifecycle.
	CommandLogin
	CommandNewSession
	CommandLogoff

	// Object leasing and mutation.
	CommandGetObject
	CommandReleaseObject
	CommandObjectSetProperty
	CommandObjectPropertyChanged
	CommandObjectAttributeChanged
	CommandObjectCallMethod

	// Table model windowing.
	CommandGetTableModel
	CommandTableModelSetRegion
	CommandTableModelColumnHeadersChanged
	CommandTableModelRowCountChanged
	CommandTableModelUpdateRegion

	// Connection keep-alive.
	CommandPing
)

// String returns the command name, used for logging.
func (c Command) String() string {
	switch c {
	case CommandLogin:
		return "Login"
	case CommandNewSession:
		return "NewSession"
	case CommandLogoff:
		return "Logoff"
	case CommandGetObject:
		return "GetObject"
	case CommandReleaseObject:
		return "ReleaseObject"
	case CommandObjectSetProperty:
		return "ObjectSetProperty"
	case CommandObjectPropertyChanged:
		return "ObjectPropertyChanged"
	case CommandObjectAttributeChanged:
		return "ObjectAttributeChanged"
	case CommandObjectCallMethod:
		return "ObjectCallMethod"
	case CommandGetTableModel:
		return "GetTableModel"
	case CommandTableModelSetRegion:
		return "TableModelSetRegion"
	case CommandTableModelColumnHeadersChanged:
		return "TableModelColumnHeadersChanged"
	case CommandTableModelRowCountChanged:
		return "TableModelRowCountChanged"
	case CommandTableModelUpdateRegion:
		return "TableModelUpdateRegion"
	case CommandPing:
		return "Ping"
	default:
		return "Unknown"
	}
}

// PropertyType tags the on-wire type of a property value.
type PropertyType uint8

const (
	PropertyTypeInvalid PropertyType = iota
	PropertyTypeBoolean
	PropertyTypeInteger
	PropertyTypeFloat
	PropertyTypeString
	PropertyTypeObject
	PropertyTypeEnum
	PropertyTypeSet
)

// String returns the property type name.
func (t PropertyType) String() string {
	switch t {
	case PropertyTypeBoolean:
		return "Boolean"
	case PropertyTypeInteger:
		return "Integer"
	case PropertyTypeFloat:
		return "Float"
	case PropertyTypeString:
		return "String"
	case PropertyTypeObject:
		return "Object"
	case PropertyTypeEnum:
		return "Enum"
	case PropertyTypeSet:
		return "Set"
	default:
		return "Invalid"
	}
}

// IsValid reports whether t is a recognized property type tag.
func (t PropertyType) IsValid() bool {
	return t >= PropertyTypeBoolean && t <= PropertyTypeSet
}
