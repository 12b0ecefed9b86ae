package ezlogger

import "encoding/binary"

const (
	DefaultPort = 1234

	HeaderSize  = 7
	PayloadSize = 49
	FrameSize   = HeaderSize + PayloadSize

	offsetDeclaredSize  = 0x06
	offsetChecksumStart = 0x07
	offsetV1            = 0x0A
	offsetV2            = 0x0E
	offsetV3            = 0x12
	offsetI1            = 0x16
	offsetI2            = 0x1A
	offsetI3            = 0x1E
	offsetP1            = 0x22
	offsetP2            = 0x26
	offsetP3            = 0x2A
	offsetMetersPower   = 0x2E
	offsetInvPower      = 0x32
	offsetChecksum      = 0x36

	voltageDivisor = 10
	currentDivisor = 100
	powerDivisor   = 1000
)

// RequestCommand is the only request the device understands.
var RequestCommand = []byte{0x00, 0x05, 0x01, 0x01, 0x0B, 0x00, 0x0D}

// ResponseMagic is the fixed start of every response header ("\x04REV0\x00").
var ResponseMagic = []byte{0x04, 0x52, 0x45, 0x56, 0x30, 0x00}

type TelemetryFrame struct {
	V1             float64 `json:"v1"`
	V2             float64 `json:"v2"`
	V3             float64 `json:"v3"`
	I1             float64 `json:"i1"`
	I2             float64 `json:"i2"`
	I3             float64 `json:"i3"`
	P1             float64 `json:"p1"`
	P2             float64 `json:"p2"`
	P3             float64 `json:"p3"`
	MetersPower    float64 `json:"meters_power"`
	InvertersPower float64 `json:"inverters_power"`
}

// RawResponse is a complete device answer: 7 header bytes followed by the payload.
type RawResponse []byte

func (r RawResponse) Header() []byte {
	if len(r) < HeaderSize {
		return r
	}
	return r[:HeaderSize]
}

func (r RawResponse) DeclaredSize() int {
	if len(r) <= offsetDeclaredSize {
		return -1
	}
	return int(r[offsetDeclaredSize])
}

// Checksum returns the trailer stored in the response and whether it is present.
func (r RawResponse) Checksum() (uint16, bool) {
	if len(r) < offsetChecksum+2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(r[offsetChecksum : offsetChecksum+2]), true
}
