package ezlogger

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Decode extracts the telemetry fields of a raw response. It does not look at
// the header nor the checksum trailer.
func Decode(raw []byte) (*TelemetryFrame, error) {
	if len(raw) < offsetChecksum {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrDecode, len(raw), offsetChecksum)
	}
	return &TelemetryFrame{
		V1:             readScaled(raw, offsetV1, voltageDivisor),
		V2:             readScaled(raw, offsetV2, voltageDivisor),
		V3:             readScaled(raw, offsetV3, voltageDivisor),
		I1:             readScaled(raw, offsetI1, currentDivisor),
		I2:             readScaled(raw, offsetI2, currentDivisor),
		I3:             readScaled(raw, offsetI3, currentDivisor),
		P1:             readScaled(raw, offsetP1, powerDivisor),
		P2:             readScaled(raw, offsetP2, powerDivisor),
		P3:             readScaled(raw, offsetP3, powerDivisor),
		MetersPower:    readScaled(raw, offsetMetersPower, powerDivisor),
		InvertersPower: readScaled(raw, offsetInvPower, powerDivisor),
	}, nil
}

// ComputeChecksum returns the 16 bit sum of bytes 0x07..0x35.
func ComputeChecksum(raw []byte) uint16 {
	var sum uint16
	end := min(len(raw), offsetChecksum)
	for i := offsetChecksumStart; i < end; i++ {
		sum += uint16(raw[i])
	}
	return sum
}

func VerifyChecksum(raw []byte) error {
	stored, ok := RawResponse(raw).Checksum()
	if !ok {
		return fmt.Errorf("%w: trailer missing", ErrChecksum)
	}
	if computed := ComputeChecksum(raw); computed != stored {
		return fmt.Errorf("%w: stored 0x%04X, computed 0x%04X", ErrChecksum, stored, computed)
	}
	return nil
}

// Encode builds a complete response for frame, checksum included.
// Values are rounded to the nearest raw unit.
func Encode(frame TelemetryFrame) RawResponse {
	raw := make([]byte, FrameSize)
	copy(raw, ResponseMagic)
	raw[offsetDeclaredSize] = PayloadSize
	copy(raw[offsetChecksumStart:offsetV1], RequestCommand[2:5])

	writeScaled(raw, offsetV1, frame.V1, voltageDivisor)
	writeScaled(raw, offsetV2, frame.V2, voltageDivisor)
	writeScaled(raw, offsetV3, frame.V3, voltageDivisor)
	writeScaled(raw, offsetI1, frame.I1, currentDivisor)
	writeScaled(raw, offsetI2, frame.I2, currentDivisor)
	writeScaled(raw, offsetI3, frame.I3, currentDivisor)
	writeScaled(raw, offsetP1, frame.P1, powerDivisor)
	writeScaled(raw, offsetP2, frame.P2, powerDivisor)
	writeScaled(raw, offsetP3, frame.P3, powerDivisor)
	writeScaled(raw, offsetMetersPower, frame.MetersPower, powerDivisor)
	writeScaled(raw, offsetInvPower, frame.InvertersPower, powerDivisor)

	binary.BigEndian.PutUint16(raw[offsetChecksum:], ComputeChecksum(raw))
	return raw
}

func readScaled(raw []byte, offset int, divisor float64) float64 {
	return float64(int32(binary.BigEndian.Uint32(raw[offset:offset+4]))) / divisor
}

func writeScaled(raw []byte, offset int, value float64, divisor float64) {
	binary.BigEndian.PutUint32(raw[offset:offset+4], uint32(int32(math.Round(value*divisor))))
}
