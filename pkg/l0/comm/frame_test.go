package comm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandFrameEncode(t *testing.T) {
	cases := []struct {
		name   string
		frame  CommandFrame
		expect []byte
	}{
		{
			name:   "stop heartbeat",
			frame:  CommandFrame{},
			expect: []byte{0xfd, 0x7d, 0x7d, 0x7d, 0x00, 0x00, 0x87},
		},
		{
			name:   "full speed get data",
			frame:  CommandFrame{Left: 1, Right: -1, Verb: VerbGetData, Arg: 40},
			expect: []byte{0xfd, 0xfa, 0x00, 0x7d, 0x0a, 0x28, 0x55},
		},
		{
			name:   "half speed get data",
			frame:  CommandFrame{Left: 0.5, Verb: VerbGetData, Arg: 14},
			expect: []byte{0xfd, 0xbc, 0x7d, 0x7d, 0x0a, 0x0e, 0x30},
		},
		{
			name:   "flipper calibrate",
			frame:  CommandFrame{Verb: VerbFlipperCalibrate, Arg: byte(VerbFlipperCalibrate)},
			expect: []byte{0xfd, 0x7d, 0x7d, 0x7d, 0x1e, 0x1e, 0x4b},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := tc.frame.Encode()
			require.Equal(t, tc.expect, b[:])
			decoded, err := DecodeCommandFrame(b[:], SumChecksum)
			require.NoError(t, err)
			require.Equal(t, tc.frame.Verb, decoded.Verb)
			require.Equal(t, tc.frame.Arg, decoded.Arg)
			require.InDelta(t, tc.frame.Left, decoded.Left, 0.005)
			require.InDelta(t, tc.frame.Right, decoded.Right, 0.005)
			require.InDelta(t, tc.frame.Flipper, decoded.Flipper, 0.005)
		})
	}
}

func TestEncodeMotor(t *testing.T) {
	require.Equal(t, byte(125), EncodeMotor(0))
	require.Equal(t, byte(250), EncodeMotor(1))
	require.Equal(t, byte(0), EncodeMotor(-1))
	require.Equal(t, byte(188), EncodeMotor(0.5))
	require.Equal(t, byte(62), EncodeMotor(-0.5))
	require.Equal(t, byte(250), EncodeMotor(3))
	require.Equal(t, byte(0), EncodeMotor(-3))
	require.Equal(t, byte(125), EncodeMotor(math.NaN()))
	for b := 0; b <= 250; b++ {
		require.Equal(t, byte(b), EncodeMotor(DecodeMotor(byte(b))))
	}
}

func TestValidMotor(t *testing.T) {
	require.True(t, ValidMotor(0))
	require.True(t, ValidMotor(-1))
	require.True(t, ValidMotor(1))
	require.False(t, ValidMotor(1.01))
	require.False(t, ValidMotor(-1.01))
	require.False(t, ValidMotor(math.NaN()))
	require.False(t, ValidMotor(math.Inf(1)))
}

func TestDecodeCommandFrameErrors(t *testing.T) {
	b := CommandFrame{Verb: VerbRestart}.Encode()

	_, err := DecodeCommandFrame(b[:6], SumChecksum)
	require.Equal(t, ErrNeedMoreData, err)

	bad := b
	bad[0] = 0
	_, err = DecodeCommandFrame(bad[:], SumChecksum)
	require.IsType(t, &FramingError{}, err)

	bad = b
	bad[4] ^= 0x01
	_, err = DecodeCommandFrame(bad[:], SumChecksum)
	require.IsType(t, &FramingError{}, err)
}

func TestVerb(t *testing.T) {
	require.Equal(t, "GET_DATA", VerbGetData.String())
	require.Equal(t, "VERB(99)", Verb(99).String())
	for _, v := range SettingsVerbs {
		require.True(t, v.IsSetting(), v.String())
	}
	require.False(t, VerbNOP.IsSetting())
	require.False(t, VerbGetData.IsSetting())
	require.False(t, VerbCommitSettings.IsSetting())
}

func TestSumChecksumDetectsBitFlips(t *testing.T) {
	b := CommandFrame{Left: 0.3, Right: -0.7, Verb: VerbSetFanSpeed, Arg: 120}.Encode()
	for i := 1; i < CommandFrameLen; i++ {
		for bit := 0; bit < 8; bit++ {
			flipped := b
			flipped[i] ^= 1 << uint(bit)
			require.NotEqual(t, flipped[6], SumChecksum(flipped[1:6]), "byte %d bit %d", i, bit)
		}
	}
}
