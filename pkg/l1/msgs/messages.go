package msgs

import (
	"github.com/golang/protobuf/proto"
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic reply representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return &CommandErr{Message: err.Error()}
}

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// Drive sets the motor speeds, each in [-1, 1]. The rover stops when no
// Drive is received for a while.
type Drive struct {
	Left    float64 `protobuf:"fixed64,1,opt,name=left,proto3" json:"left,omitempty"`
	Right   float64 `protobuf:"fixed64,2,opt,name=right,proto3" json:"right,omitempty"`
	Flipper float64 `protobuf:"fixed64,3,opt,name=flipper,proto3" json:"flipper,omitempty"`
}

// TypeID implements SerializableMessage.
func (m *Drive) TypeID() uint32 { return DriveTypeID }

// ProtoMessage implements proto.Message.
func (m *Drive) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Drive) Reset() { *m = Drive{} }

// String implements proto.Message.
func (m *Drive) String() string { return proto.CompactTextString(m) }

// FanSpeed sets the fan speed as a fraction in [0, 1].
type FanSpeed struct {
	Fraction float64 `protobuf:"fixed64,1,opt,name=fraction,proto3" json:"fraction,omitempty"`
}

// TypeID implements SerializableMessage.
func (m *FanSpeed) TypeID() uint32 { return FanSpeedTypeID }

// ProtoMessage implements proto.Message.
func (m *FanSpeed) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FanSpeed) Reset() { *m = FanSpeed{} }

// String implements proto.Message.
func (m *FanSpeed) String() string { return proto.CompactTextString(m) }

// FlipperCalibrate starts the flipper calibration.
type FlipperCalibrate struct {
}

// TypeID implements SerializableMessage.
func (m *FlipperCalibrate) TypeID() uint32 { return FlipperCalibrateTypeID }

// ProtoMessage implements proto.Message.
func (m *FlipperCalibrate) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FlipperCalibrate) Reset() { *m = FlipperCalibrate{} }

// String implements proto.Message.
func (m *FlipperCalibrate) String() string { return proto.CompactTextString(m) }

// TelemetryItem is a polled data element.
type TelemetryItem struct {
	Index uint32 `protobuf:"varint,1,opt,name=index,proto3" json:"index,omitempty"`
	Name  string `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
	// Value is the human readable value, with unit.
	Value string `protobuf:"bytes,3,opt,name=value,proto3" json:"value,omitempty"`
	// Number is set for numeric values.
	Number float64 `protobuf:"fixed64,4,opt,name=number,proto3" json:"number,omitempty"`
	// Error is set when the element couldn't be read.
	Error string `protobuf:"bytes,5,opt,name=error,proto3" json:"error,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *TelemetryItem) ProtoMessage() {}

// Reset implements proto.Message.
func (m *TelemetryItem) Reset() { *m = TelemetryItem{} }

// String implements proto.Message.
func (m *TelemetryItem) String() string { return proto.CompactTextString(m) }

// Telemetry is the event published after each poll.
type Telemetry struct {
	// Time is the poll time in unix nanoseconds.
	Time  int64            `protobuf:"varint,1,opt,name=time,proto3" json:"time,omitempty"`
	Items []*TelemetryItem `protobuf:"bytes,2,rep,name=items,proto3" json:"items,omitempty"`
}

// TypeID implements SerializableMessage.
func (m *Telemetry) TypeID() uint32 { return TelemetryTypeID }

// ProtoMessage implements proto.Message.
func (m *Telemetry) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Telemetry) Reset() { *m = Telemetry{} }

// String implements proto.Message.
func (m *Telemetry) String() string { return proto.CompactTextString(m) }

// Item finds the item by data element index.
func (m *Telemetry) Item(index int) *TelemetryItem {
	for _, item := range m.Items {
		if int(item.Index) == index {
			return item
		}
	}
	return nil
}

// TypeID Groups
const (
	GroupCommand uint32 = 0x00000000
	GroupRover   uint32 = 0x00030000
	GroupCustom  uint32 = 0x7f000000 // base group id for custom messages.
)

// TypeIDs
const (
	CommandOKTypeID        uint32 = GroupCommand | TypeIDMaskReply | 0x0000
	CommandErrTypeID       uint32 = GroupCommand | TypeIDMaskReply | 0x0001
	DriveTypeID            uint32 = GroupRover | 0x0001
	FanSpeedTypeID         uint32 = GroupRover | 0x0002
	FlipperCalibrateTypeID uint32 = GroupRover | 0x0003
	TelemetryTypeID        uint32 = TypeIDKindEvent | GroupRover | 0x0001
)

func init() {
	RegisterType(CommandOKTypeID, func() SerializableMessage { return &CommandOK{} })
	RegisterType(CommandErrTypeID, func() SerializableMessage { return &CommandErr{} })
	RegisterType(DriveTypeID, func() SerializableMessage { return &Drive{} })
	RegisterType(FanSpeedTypeID, func() SerializableMessage { return &FanSpeed{} })
	RegisterType(FlipperCalibrateTypeID, func() SerializableMessage { return &FlipperCalibrate{} })
	RegisterType(TelemetryTypeID, func() SerializableMessage { return &Telemetry{} })
}
