// Package units converts between engineering units and the raw process data
// values of the Monarco HAT.
package units

import "math"

const (
	pwmClock = 32000000

	// ADCRange is the full scale of the 12 bit analog converters.
	ADCRange = 4095
	// VoltsRange is the full scale of analog I/O in voltage mode.
	VoltsRange = 10.0
	// MilliampsRange is the full scale of analog inputs in current loop mode.
	MilliampsRange = 52.475
)

// PWMFrequency encodes a PWM frequency in Hz into the divider register.
// The two low bits select the prescaler. Frequencies outside [1 Hz, 100 kHz)
// disable the output.
func PWMFrequency(hz float64) uint16 {
	switch {
	case hz < 1:
		return 0
	case hz < 10:
		return 3 + uint16(math.Round(pwmClock/512/hz))&0xFFFC
	case hz < 100:
		return 2 + uint16(math.Round(pwmClock/64/hz))&0xFFFC
	case hz < 1000:
		return 1 + uint16(math.Round(pwmClock/8/hz))&0xFFFC
	case hz < 100000:
		return uint16(math.Round(pwmClock/hz)) & 0xFFFC
	default:
		return 0
	}
}

// PWMDuty encodes a duty cycle in [0, 1].
func PWMDuty(dc float64) uint16 {
	switch {
	case dc <= 0:
		return 0
	case dc >= 1:
		return math.MaxUint16
	default:
		return uint16(math.Round(math.MaxUint16 * dc))
	}
}

// AOutVolts encodes an analog output voltage, clamped to [0, 10] V.
func AOutVolts(v float64) uint16 {
	switch {
	case v < 0:
		return 0
	case v > VoltsRange:
		return ADCRange
	default:
		return uint16(math.Round(v / VoltsRange * ADCRange))
	}
}

// AInVolts decodes an analog input in voltage mode.
func AInVolts(raw uint16) float64 {
	return float64(raw) * VoltsRange / ADCRange
}

// AInMilliamps decodes an analog input in current loop mode.
func AInMilliamps(raw uint16) float64 {
	return float64(raw) * MilliampsRange / ADCRange
}
