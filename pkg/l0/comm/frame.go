package comm

import (
	"fmt"
	"math"
)

// Verb is the command code carried by every command frame.
type Verb byte

// Command verbs understood by the OpenRover firmware.
const (
	VerbNOP Verb = 0

	VerbSetPowerPollingIntervalMs            Verb = 3
	VerbSetOvercurrentThreshold100mA         Verb = 4
	VerbSetOvercurrentTriggerDuration5ms     Verb = 5
	VerbSetOvercurrentRecoveryThreshold100mA Verb = 6
	VerbSetOvercurrentRecoveryDuration5ms    Verb = 7
	VerbSetPWMFrequencyKHz                   Verb = 8

	VerbGetData          Verb = 10
	VerbSetFanSpeed      Verb = 20
	VerbFlipperCalibrate Verb = 30
	VerbRestart          Verb = 230
	VerbReloadSettings   Verb = 240
	VerbCommitSettings   Verb = 250
)

var verbNames = map[Verb]string{
	VerbNOP:                                  "NOP",
	VerbSetPowerPollingIntervalMs:            "SET_POWER_POLLING_INTERVAL_MS",
	VerbSetOvercurrentThreshold100mA:         "SET_OVERCURRENT_THRESHOLD_100MA",
	VerbSetOvercurrentTriggerDuration5ms:     "SET_OVERCURRENT_TRIGGER_DURATION_5MS",
	VerbSetOvercurrentRecoveryThreshold100mA: "SET_OVERCURRENT_RECOVERY_THRESHOLD_100MA",
	VerbSetOvercurrentRecoveryDuration5ms:    "SET_OVERCURRENT_RECOVERY_DURATION_5MS",
	VerbSetPWMFrequencyKHz:                   "SET_PWM_FREQUENCY_KHZ",
	VerbGetData:                              "GET_DATA",
	VerbSetFanSpeed:                          "SET_FAN_SPEED",
	VerbFlipperCalibrate:                     "FLIPPER_CALIBRATE",
	VerbRestart:                              "RESTART",
	VerbReloadSettings:                       "RELOAD_SETTINGS",
	VerbCommitSettings:                       "COMMIT_SETTINGS",
}

// SettingsVerbs are the verbs which change a persistent firmware setting.
// Their argument is the new value in 0..255.
var SettingsVerbs = []Verb{
	VerbSetPowerPollingIntervalMs,
	VerbSetOvercurrentThreshold100mA,
	VerbSetOvercurrentTriggerDuration5ms,
	VerbSetOvercurrentRecoveryThreshold100mA,
	VerbSetOvercurrentRecoveryDuration5ms,
	VerbSetPWMFrequencyKHz,
}

// String implements fmt.Stringer.
func (v Verb) String() string {
	if name, ok := verbNames[v]; ok {
		return name
	}
	return fmt.Sprintf("VERB(%d)", byte(v))
}

// IsSetting indicates the verb is one of SettingsVerbs.
func (v Verb) IsSetting() bool {
	return v >= VerbSetPowerPollingIntervalMs && v <= VerbSetPWMFrequencyKHz
}

// Wire format constants.
const (
	// SyncByte starts every frame in both directions.
	SyncByte byte = 0xfd
	// CommandFrameLen is the length of an encoded CommandFrame.
	CommandFrameLen = 7

	motorStop  = 125
	motorScale = 125
)

// Checksum computes the trailing check byte over the non-sync bytes of a frame.
type Checksum func(b []byte) byte

// SumChecksum is the firmware's additive checksum: 255 - (sum % 255).
// A single bit flip changes the sum by a power of two, which is never a
// multiple of 255, so it is always detected.
func SumChecksum(b []byte) byte {
	var sum uint
	for _, c := range b {
		sum += uint(c)
	}
	return byte(255 - sum%255)
}

// CommandFrame is one host to device command. Every frame carries the motor
// state, the protocol has no command-only frame.
type CommandFrame struct {
	Left    float64
	Right   float64
	Flipper float64
	Verb    Verb
	Arg     byte
}

// ValidMotor checks a normalized motor value is within [-1, 1].
func ValidMotor(v float64) bool {
	return v >= -1 && v <= 1
}

// EncodeMotor maps a normalized motor value to its wire byte, 125 being stop.
// The value is clamped to [-1, 1] first.
func EncodeMotor(v float64) byte {
	if math.IsNaN(v) {
		return motorStop
	}
	v = math.Max(-1, math.Min(1, v))
	return byte(int(math.Round(v*motorScale)) + motorStop)
}

// DecodeMotor is the inverse of EncodeMotor.
func DecodeMotor(b byte) float64 {
	return float64(int(b)-motorStop) / motorScale
}

// Encode encodes the frame with SumChecksum.
func (f CommandFrame) Encode() [CommandFrameLen]byte {
	return f.EncodeWith(SumChecksum)
}

// EncodeWith encodes the frame using the provided checksum.
func (f CommandFrame) EncodeWith(checksum Checksum) (b [CommandFrameLen]byte) {
	b[0] = SyncByte
	b[1] = EncodeMotor(f.Left)
	b[2] = EncodeMotor(f.Right)
	b[3] = EncodeMotor(f.Flipper)
	b[4] = byte(f.Verb)
	b[5] = f.Arg
	b[6] = checksum(b[1:6])
	return
}

// DecodeCommandFrame parses an encoded command frame, which is what the
// firmware does on the other end of the wire.
func DecodeCommandFrame(b []byte, checksum Checksum) (CommandFrame, error) {
	if len(b) < CommandFrameLen {
		return CommandFrame{}, ErrNeedMoreData
	}
	if b[0] != SyncByte {
		return CommandFrame{}, &FramingError{Reason: "missing sync byte"}
	}
	if sum := checksum(b[1:6]); sum != b[6] {
		return CommandFrame{}, &FramingError{Reason: fmt.Sprintf("checksum %02x, expect %02x", b[6], sum)}
	}
	return CommandFrame{
		Left:    DecodeMotor(b[1]),
		Right:   DecodeMotor(b[2]),
		Flipper: DecodeMotor(b[3]),
		Verb:    Verb(b[4]),
		Arg:     b[5],
	}, nil
}

// Frame is one device to host response carrying a data element.
type Frame struct {
	Key     byte
	Payload []byte
}

// Bytes encodes the response frame, as sent by the firmware.
func (f Frame) Bytes(checksum Checksum) []byte {
	b := make([]byte, len(f.Payload)+3)
	b[0], b[1] = SyncByte, f.Key
	copy(b[2:], f.Payload)
	b[len(b)-1] = checksum(b[1 : len(b)-1])
	return b
}
