package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedEnvelope(t *testing.T) {
	typed, err := TypedFrom(&Drive{Left: 0.5, Right: -0.25})
	require.NoError(t, err)
	require.True(t, typed.IsCommand())
	require.False(t, typed.IsReply())
	typed.Sequence = 7

	pkt, err := typed.Encode()
	require.NoError(t, err)
	decoded, err := DecodeTyped(pkt)
	require.NoError(t, err)
	require.Equal(t, DriveTypeID, decoded.TypeId)
	require.Equal(t, uint32(7), decoded.Sequence)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.Equal(t, &Drive{Left: 0.5, Right: -0.25}, msg)
}

func TestTelemetryEvent(t *testing.T) {
	typed, err := TypedFrom(&Telemetry{Time: 100, Items: []*TelemetryItem{
		{Index: 14, Name: "battery", Value: "16.000V", Number: 16},
		{Index: 72, Error: "timeout"},
	}})
	require.NoError(t, err)
	require.True(t, typed.IsEvent())
	msg, err := typed.Decode()
	require.NoError(t, err)
	telemetry := msg.(*Telemetry)
	require.Len(t, telemetry.Items, 2)
	require.Equal(t, 16.0, telemetry.Item(14).Number)
	require.Equal(t, "timeout", telemetry.Item(72).Error)
	require.Nil(t, telemetry.Item(40))
}

func TestReplies(t *testing.T) {
	typed, err := TypedFrom(NewCommandErr(ErrUnsupportedCommand))
	require.NoError(t, err)
	require.True(t, typed.IsReply())
	msg, err := typed.Decode()
	require.NoError(t, err)
	require.EqualError(t, msg.(*CommandErr), "unsupported command")
}

func TestUnknownType(t *testing.T) {
	_, err := (&Typed{TypeId: GroupCustom | 1}).Decode()
	require.Equal(t, &ErrUnknownType{TypeID: GroupCustom | 1}, err)
	_, err = TypedFrom("not a message")
	require.Equal(t, ErrNotSerializable, err)
	require.Panics(t, func() {
		RegisterType(DriveTypeID, func() SerializableMessage { return &Drive{} })
	})
}
