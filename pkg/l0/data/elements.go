package data

// Well-known element indices.
const (
	IndexBatteryVoltageExternal = 14
	IndexBatteryVoltageInternal = 16
	IndexLeftEncoderInterval    = 28
	IndexRightEncoderInterval   = 30
	IndexFlipperEncoderInterval = 32
	IndexBatteryChargingState   = 38
	IndexFirmwareVersion        = 40
	IndexFanSpeed               = 48
	IndexBatteryAStatus         = 52
	IndexBatteryBStatus         = 54
	IndexMotorStatus            = 72
)

// Elements is the OpenRover data element table.
var Elements = []Element{
	{0, "encoder count, left", FormatCount},
	{2, "encoder count, right", FormatCount},
	{4, "encoder count, flipper", FormatCount},
	{6, "encoder period, left", FormatCount},
	{8, "encoder period, right", FormatCount},
	{10, "encoder period, flipper", FormatCount},
	{12, "flipper position 1", FormatCount},
	{IndexBatteryVoltageExternal, "battery (A+B) voltage (external)", FormatVoltage},
	{IndexBatteryVoltageInternal, "battery (A+B) voltage (internal)", FormatVoltage},
	{18, "flipper position 2", FormatCount},
	{20, "left motor temperature", FormatTemperature},
	{22, "right motor temperature", FormatTemperature},
	{24, "battery A voltage (external)", FormatVoltage},
	{26, "battery B voltage (external)", FormatVoltage},
	{IndexLeftEncoderInterval, "left motor encoder interval", FormatCount},
	{IndexRightEncoderInterval, "right motor encoder interval", FormatCount},
	{IndexFlipperEncoderInterval, "flipper motor encoder interval", FormatCount},
	{34, "battery A state of charge", FormatPercent},
	{36, "battery B state of charge", FormatPercent},
	{IndexBatteryChargingState, "battery charging state", FormatChargerState},
	{IndexFirmwareVersion, "release version", FormatFirmwareVersion},
	{42, "battery A current (external)", FormatCurrent},
	{44, "battery B current (external)", FormatCurrent},
	{46, "motor flipper angle", FormatCount},
	{IndexFanSpeed, "fan speed", FormatCount},
	{50, "drive mode", FormatCount},
	{IndexBatteryAStatus, "battery A status", FormatBatteryStatus},
	{IndexBatteryBStatus, "battery B status", FormatBatteryStatus},
	{56, "battery A mode", FormatCount},
	{58, "battery B mode", FormatCount},
	{60, "battery A temperature (internal)", FormatKelvinTemperature},
	{62, "battery B temperature (internal)", FormatKelvinTemperature},
	{64, "battery A voltage (internal)", FormatVoltage},
	{66, "battery B voltage (internal)", FormatVoltage},
	{68, "battery A current (internal)", FormatSignedCurrent},
	{70, "battery B current (internal)", FormatSignedCurrent},
	{IndexMotorStatus, "motor status flags", FormatMotorStatus},
	{74, "left motor speed", FormatSigned},
	{76, "right motor speed", FormatSigned},
	{78, "flipper motor speed", FormatSigned},
}

var defaultRegistry = NewRegistry(Elements...)

// Default returns the registry built from Elements.
func Default() *Registry {
	return defaultRegistry
}
