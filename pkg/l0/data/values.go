package data

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Value is a decoded data element.
type Value interface {
	fmt.Stringer
}

// Numeric values can be reported as a plain number.
type Numeric interface {
	Value
	Float() float64
}

// Voltage in volts.
type Voltage float64

func (v Voltage) String() string { return fmt.Sprintf("%.3fV", float64(v)) }
func (v Voltage) Float() float64 { return float64(v) }

// Current in amperes.
type Current float64

func (v Current) String() string { return fmt.Sprintf("%.3fA", float64(v)) }
func (v Current) Float() float64 { return float64(v) }

// Temperature in degrees Celsius.
type Temperature float64

func (v Temperature) String() string { return fmt.Sprintf("%.1f°C", float64(v)) }
func (v Temperature) Float() float64 { return float64(v) }

// Percent in 0..100.
type Percent float64

func (v Percent) String() string { return fmt.Sprintf("%.0f%%", float64(v)) }
func (v Percent) Float() float64 { return float64(v) }

// Count is an unsigned quantity, e.g. encoder ticks or intervals.
type Count uint16

func (v Count) String() string { return fmt.Sprintf("%d", uint16(v)) }
func (v Count) Float() float64 { return float64(v) }

// Signed is a signed quantity, e.g. a motor speed.
type Signed int16

func (v Signed) String() string { return fmt.Sprintf("%d", int16(v)) }
func (v Signed) Float() float64 { return float64(v) }

// ChargerState tells whether the charger is connected.
type ChargerState bool

func (v ChargerState) String() string {
	if v {
		return "charging"
	}
	return "not charging"
}

// Float implements Numeric.
func (v ChargerState) Float() float64 {
	if v {
		return 1
	}
	return 0
}

// BatteryStatus is the smart battery status word.
type BatteryStatus uint16

// Battery status flags.
const (
	BatteryOverChargedAlarm        BatteryStatus = 0x8000
	BatteryTerminateChargeAlarm    BatteryStatus = 0x4000
	BatteryOverTemperatureAlarm    BatteryStatus = 0x1000
	BatteryTerminateDischargeAlarm BatteryStatus = 0x0800
	BatteryRemainingCapacityAlarm  BatteryStatus = 0x0200
	BatteryRemainingTimeAlarm      BatteryStatus = 0x0100
	BatteryInitialized             BatteryStatus = 0x0080
	BatteryDischarging             BatteryStatus = 0x0040
	BatteryFullyCharged            BatteryStatus = 0x0020
	BatteryFullyDischarged         BatteryStatus = 0x0010
)

var batteryStatusNames = []struct {
	flag BatteryStatus
	name string
}{
	{BatteryOverChargedAlarm, "OVER_CHARGED_ALARM"},
	{BatteryTerminateChargeAlarm, "TERMINATE_CHARGE_ALARM"},
	{BatteryOverTemperatureAlarm, "OVER_TEMPERATURE_ALARM"},
	{BatteryTerminateDischargeAlarm, "TERMINATE_DISCHARGE_ALARM"},
	{BatteryRemainingCapacityAlarm, "REMAINING_CAPACITY_ALARM"},
	{BatteryRemainingTimeAlarm, "REMAINING_TIME_ALARM"},
	{BatteryInitialized, "INITIALIZED"},
	{BatteryDischarging, "DISCHARGING"},
	{BatteryFullyCharged, "FULLY_CHARGED"},
	{BatteryFullyDischarged, "FULLY_DISCHARGED"},
}

// Has checks if all bits of flag are set.
func (v BatteryStatus) Has(flag BatteryStatus) bool {
	return v&flag == flag
}

// ErrorCode is the low nibble of the status word.
func (v BatteryStatus) ErrorCode() int {
	return int(v & 0x000f)
}

func (v BatteryStatus) String() string {
	var names []string
	for _, item := range batteryStatusNames {
		if v.Has(item.flag) {
			names = append(names, item.name)
		}
	}
	if code := v.ErrorCode(); code != 0 {
		names = append(names, fmt.Sprintf("ERROR(%d)", code))
	}
	if len(names) == 0 {
		return "OK"
	}
	return strings.Join(names, "|")
}

// Float implements Numeric.
func (v BatteryStatus) Float() float64 { return float64(v) }

// MotorStatus is the per-motor driver state reported by the firmware.
type MotorStatus uint16

// Motor status bits, one group per motor.
const (
	MotorLeftFault      MotorStatus = 0x0001
	MotorLeftBraking    MotorStatus = 0x0002
	MotorRightFault     MotorStatus = 0x0004
	MotorRightBraking   MotorStatus = 0x0008
	MotorFlipperFault   MotorStatus = 0x0010
	MotorFlipperBraking MotorStatus = 0x0020
)

func (v MotorStatus) String() string {
	if v == 0 {
		return "OK"
	}
	var names []string
	for _, item := range []struct {
		flag MotorStatus
		name string
	}{
		{MotorLeftFault, "LEFT_FAULT"},
		{MotorLeftBraking, "LEFT_BRAKING"},
		{MotorRightFault, "RIGHT_FAULT"},
		{MotorRightBraking, "RIGHT_BRAKING"},
		{MotorFlipperFault, "FLIPPER_FAULT"},
		{MotorFlipperBraking, "FLIPPER_BRAKING"},
	} {
		if v&item.flag != 0 {
			names = append(names, item.name)
		}
	}
	if rest := v &^ 0x003f; rest != 0 {
		names = append(names, fmt.Sprintf("0x%04x", uint16(rest)))
	}
	return strings.Join(names, "|")
}

// Float implements Numeric.
func (v MotorStatus) Float() float64 { return float64(v) }

// FirmwareVersion is the release version of the OpenRover firmware.
type FirmwareVersion struct {
	Major int
	Minor int
	Patch int
}

// FirmwareVersionFromValue splits the packed value major*10000+minor*100+patch.
func FirmwareVersionFromValue(value uint16) FirmwareVersion {
	return FirmwareVersion{
		Major: int(value) / 10000,
		Minor: int(value) / 100 % 100,
		Patch: int(value) % 100,
	}
}

// Value packs the version back into its wire value.
func (v FirmwareVersion) Value() uint16 {
	return uint16(v.Major*10000 + v.Minor*100 + v.Patch)
}

func (v FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Float implements Numeric.
func (v FirmwareVersion) Float() float64 { return float64(v.Value()) }

// Compare returns -1, 0 or +1 depending on v being older, equal or newer than o.
func (v FirmwareVersion) Compare(o FirmwareVersion) int {
	return semver.Compare("v"+v.String(), "v"+o.String())
}

// AtLeast checks the version against a minimum in the form N, N.N or N.N.N.
func (v FirmwareVersion) AtLeast(minimum string) (bool, error) {
	canonical, err := CanonicalVersion(minimum)
	if err != nil {
		return false, err
	}
	return semver.Compare("v"+v.String(), canonical) >= 0, nil
}

// CanonicalVersion validates a version in the form N, N.N or N.N.N and
// returns it as a semver string.
func CanonicalVersion(version string) (string, error) {
	s := "v" + strings.TrimPrefix(strings.TrimSpace(version), "v")
	if !semver.IsValid(s) || semver.Prerelease(s) != "" || semver.Build(s) != "" {
		return "", fmt.Errorf("invalid version %q: expect N, N.N or N.N.N", version)
	}
	return semver.Canonical(s), nil
}

// Raw is the payload of an element the registry doesn't know about.
type Raw []byte

func (v Raw) String() string {
	return "raw:" + hex.EncodeToString(v)
}
