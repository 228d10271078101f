package data

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// Type tags the semantic type of a data element.
type Type int

// Value types.
const (
	TypeRaw Type = iota
	TypeVoltage
	TypeCurrent
	TypeTemperature
	TypePercent
	TypeCount
	TypeSigned
	TypeChargerState
	TypeBatteryStatus
	TypeMotorStatus
	TypeFirmwareVersion
)

var typeNames = [...]string{
	TypeRaw:             "raw",
	TypeVoltage:         "voltage",
	TypeCurrent:         "current",
	TypeTemperature:     "temperature",
	TypePercent:         "percent",
	TypeCount:           "count",
	TypeSigned:          "signed",
	TypeChargerState:    "charger-state",
	TypeBatteryStatus:   "battery-status",
	TypeMotorStatus:     "motor-status",
	TypeFirmwareVersion: "firmware-version",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// DefaultPayloadLen is the payload length of elements unknown to a registry.
const DefaultPayloadLen = 2

// Format decodes the payload of an element into a Value.
type Format struct {
	Type   Type
	Size   int
	decode func([]byte) (Value, error)
}

// Element describes one telemetry data element.
type Element struct {
	Index  int
	Name   string
	Format Format
}

// DecodeError indicates the payload doesn't have the shape the element expects.
type DecodeError struct {
	Index   int
	Payload []byte
	Reason  string
}

// Error implements error.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode element %d (% x): %s", e.Index, e.Payload, e.Reason)
}

// Registry maps data element indices to their decoding rules.
// It's immutable once created and safe for concurrent use.
type Registry struct {
	elements map[int]Element
	indices  []int
}

// NewRegistry creates a registry. It panics on duplicated or invalid
// indices as the table is static.
func NewRegistry(elements ...Element) *Registry {
	r := &Registry{elements: make(map[int]Element, len(elements))}
	for _, elem := range elements {
		if elem.Index < 0 || elem.Index > 0xff {
			panic(fmt.Sprintf("data element index %d out of range", elem.Index))
		}
		if _, exist := r.elements[elem.Index]; exist {
			panic(fmt.Sprintf("data element %d registered twice", elem.Index))
		}
		r.elements[elem.Index] = elem
		r.indices = append(r.indices, elem.Index)
	}
	sort.Ints(r.indices)
	return r
}

// Lookup finds the element by index.
func (r *Registry) Lookup(index int) (Element, bool) {
	elem, ok := r.elements[index]
	return elem, ok
}

// Indices returns all known indices in ascending order.
func (r *Registry) Indices() []int {
	return append([]int(nil), r.indices...)
}

// PayloadLen returns the payload length of a response frame with the key.
func (r *Registry) PayloadLen(key byte) int {
	if elem, ok := r.elements[int(key)]; ok {
		return elem.Format.Size
	}
	return DefaultPayloadLen
}

// Decode decodes the payload of the element. The payload of an unknown
// element is returned as Raw.
func (r *Registry) Decode(index int, payload []byte) (Value, error) {
	elem, ok := r.elements[index]
	if !ok {
		return Raw(append([]byte(nil), payload...)), nil
	}
	if len(payload) != elem.Format.Size {
		return nil, &DecodeError{
			Index:   index,
			Payload: payload,
			Reason:  fmt.Sprintf("%s expects %d bytes, got %d", elem.Format.Type, elem.Format.Size, len(payload)),
		}
	}
	val, err := elem.Format.decode(payload)
	if err != nil {
		return nil, &DecodeError{Index: index, Payload: payload, Reason: err.Error()}
	}
	return val, nil
}

func u16(b []byte) uint16 {
	return binary.BigEndian.Uint16(b)
}

// FixedPrecision formats a 16-bit integer scaled by step.
func FixedPrecision(typ Type, signed bool, step, offset float64) Format {
	return Format{Type: typ, Size: 2, decode: func(b []byte) (Value, error) {
		var raw float64
		if signed {
			raw = float64(int16(u16(b)))
		} else {
			raw = float64(u16(b))
		}
		v := raw*step + offset
		switch typ {
		case TypeVoltage:
			return Voltage(v), nil
		case TypeCurrent:
			return Current(v), nil
		case TypeTemperature:
			return Temperature(v), nil
		case TypePercent:
			return Percent(v), nil
		}
		return nil, fmt.Errorf("%s is not a fixed precision type", typ)
	}}
}

// Formats of the OpenRover data elements.
var (
	FormatCount = Format{Type: TypeCount, Size: 2, decode: func(b []byte) (Value, error) {
		return Count(u16(b)), nil
	}}
	FormatSigned = Format{Type: TypeSigned, Size: 2, decode: func(b []byte) (Value, error) {
		return Signed(int16(u16(b))), nil
	}}
	FormatChargerState = Format{Type: TypeChargerState, Size: 2, decode: func(b []byte) (Value, error) {
		switch u16(b) {
		case chargerActive:
			return ChargerState(true), nil
		case chargerInactive:
			return ChargerState(false), nil
		}
		return nil, fmt.Errorf("unexpected charger state %#04x", u16(b))
	}}
	FormatBatteryStatus = Format{Type: TypeBatteryStatus, Size: 2, decode: func(b []byte) (Value, error) {
		return BatteryStatus(u16(b)), nil
	}}
	FormatMotorStatus = Format{Type: TypeMotorStatus, Size: 2, decode: func(b []byte) (Value, error) {
		return MotorStatus(u16(b)), nil
	}}
	FormatFirmwareVersion = Format{Type: TypeFirmwareVersion, Size: 2, decode: func(b []byte) (Value, error) {
		v := u16(b)
		if v == 0 {
			return nil, fmt.Errorf("firmware version not set")
		}
		return FirmwareVersionFromValue(v), nil
	}}
	FormatVoltage           = FixedPrecision(TypeVoltage, false, 0.001, 0)
	FormatCurrent           = FixedPrecision(TypeCurrent, false, 0.001, 0)
	FormatSignedCurrent     = FixedPrecision(TypeCurrent, true, 0.001, 0)
	FormatTemperature       = FixedPrecision(TypeTemperature, true, 1, 0)
	FormatKelvinTemperature = FixedPrecision(TypeTemperature, false, 0.1, -273.15)
	FormatPercent           = FixedPrecision(TypePercent, false, 1, 0)
)

const (
	chargerActive   uint16 = 0xdada
	chargerInactive uint16 = 0
)
