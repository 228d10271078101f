package data

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirmwareVersion(t *testing.T) {
	v := FirmwareVersionFromValue(10520)
	require.Equal(t, FirmwareVersion{Major: 1, Minor: 5, Patch: 20}, v)
	require.Equal(t, uint16(10520), v.Value())
	require.Equal(t, "1.5.20", v.String())

	require.Equal(t, 0, v.Compare(FirmwareVersion{1, 5, 20}))
	require.Equal(t, 1, v.Compare(FirmwareVersion{1, 4, 99}))
	require.Equal(t, -1, v.Compare(FirmwareVersion{1, 10, 0}))

	cases := []struct {
		minimum string
		ok      bool
	}{
		{"1", true},
		{"1.5", true},
		{"1.5.20", true},
		{"v1.5.19", true},
		{"1.5.21", false},
		{"1.10", false},
		{"2", false},
	}
	for _, tc := range cases {
		ok, err := v.AtLeast(tc.minimum)
		require.NoError(t, err, tc.minimum)
		require.Equal(t, tc.ok, ok, tc.minimum)
	}
	for _, bad := range []string{"", "x", "1.2.3.4", "1.2-rc1", "-1"} {
		_, err := v.AtLeast(bad)
		require.Error(t, err, bad)
	}
}

func TestCanonicalVersion(t *testing.T) {
	s, err := CanonicalVersion("1.2")
	require.NoError(t, err)
	require.Equal(t, "v1.2.0", s)
	s, err = CanonicalVersion(" v3 ")
	require.NoError(t, err)
	require.Equal(t, "v3.0.0", s)
}

func TestBatteryStatus(t *testing.T) {
	require.Equal(t, "OK", BatteryStatus(0).String())
	s := BatteryFullyCharged | BatteryInitialized | 0x3
	require.True(t, s.Has(BatteryInitialized))
	require.False(t, s.Has(BatteryDischarging))
	require.Equal(t, 3, s.ErrorCode())
	require.Equal(t, "INITIALIZED|FULLY_CHARGED|ERROR(3)", s.String())
}

func TestMotorStatus(t *testing.T) {
	require.Equal(t, "OK", MotorStatus(0).String())
	require.Equal(t, "LEFT_FAULT|FLIPPER_BRAKING", (MotorLeftFault | MotorFlipperBraking).String())
	require.Equal(t, "RIGHT_BRAKING|0x0100", (MotorRightBraking | 0x100).String())
}

func TestValueStrings(t *testing.T) {
	require.Equal(t, "12.345V", Voltage(12.345).String())
	require.Equal(t, "-1.000A", Current(-1).String())
	require.Equal(t, "26.5°C", Temperature(26.5).String())
	require.Equal(t, "80%", Percent(80).String())
	require.Equal(t, "charging", ChargerState(true).String())
	require.Equal(t, "-2", Signed(-2).String())
	require.Equal(t, 1.0, ChargerState(true).Float())
}
