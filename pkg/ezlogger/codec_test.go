package ezlogger

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawWith(values map[int]int32) []byte {
	raw := make([]byte, FrameSize)
	copy(raw, ResponseMagic)
	raw[offsetDeclaredSize] = PayloadSize
	for offset, v := range values {
		binary.BigEndian.PutUint32(raw[offset:], uint32(v))
	}
	binary.BigEndian.PutUint16(raw[offsetChecksum:], ComputeChecksum(raw))
	return raw
}

func TestDecodeKnownFields(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	raw := rawWith(map[int]int32{
		offsetV1:          2310,
		offsetV2:          2294,
		offsetV3:          2327,
		offsetI1:          512,
		offsetI2:          498,
		offsetI3:          -503,
		offsetP1:          1182,
		offsetP2:          1141,
		offsetP3:          1170,
		offsetMetersPower: -245,
		offsetInvPower:    3738,
	})

	frame, err := Decode(raw)
	require.NoError(err)

	assert.InDelta(231.0, frame.V1, 1e-9, "V1")
	assert.InDelta(229.4, frame.V2, 1e-9, "V2")
	assert.InDelta(232.7, frame.V3, 1e-9, "V3")
	assert.InDelta(5.12, frame.I1, 1e-9, "I1")
	assert.InDelta(4.98, frame.I2, 1e-9, "I2")
	assert.InDelta(-5.03, frame.I3, 1e-9, "I3")
	assert.InDelta(1.182, frame.P1, 1e-9, "P1")
	assert.InDelta(1.141, frame.P2, 1e-9, "P2")
	assert.InDelta(1.170, frame.P3, 1e-9, "P3")
	assert.InDelta(-0.245, frame.MetersPower, 1e-9, "MetersPower")
	assert.InDelta(3.738, frame.InvertersPower, 1e-9, "InvertersPower")
}

func TestDecodeIsPure(t *testing.T) {

	assert := assert.New(t)

	raw := Encode(TestFrame())
	original := append([]byte(nil), raw...)

	a, err := Decode(raw)
	assert.NoError(err)
	b, err := Decode(raw)
	assert.NoError(err)

	assert.Equal(*a, *b, "same bytes, same frame")
	assert.Equal(original, []byte(raw), "input untouched")
}

func TestDecodeShortInput(t *testing.T) {

	assert := assert.New(t)

	for _, size := range []int{0, HeaderSize, offsetInvPower, offsetChecksum - 1} {
		_, err := Decode(make([]byte, size))
		assert.ErrorIs(err, ErrDecode, "size %d", size)
	}

	// the checksum trailer is not needed to decode
	_, err := Decode(Encode(TestFrame())[:offsetChecksum])
	assert.NoError(err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {

	assert := assert.New(t)

	frame := TestFrame()
	raw := Encode(frame)

	assert.Len(raw, FrameSize)
	assert.Equal(ResponseMagic, raw.Header()[:len(ResponseMagic)])
	assert.Equal(PayloadSize, raw.DeclaredSize())

	decoded, err := Decode(raw)
	assert.NoError(err)
	assert.InDelta(frame.V2, decoded.V2, 1e-9)
	assert.InDelta(frame.MetersPower, decoded.MetersPower, 1e-9)
	assert.InDelta(frame.InvertersPower, decoded.InvertersPower, 1e-9)
}

func TestChecksum(t *testing.T) {

	assert := assert.New(t)

	raw := Encode(TestFrame())
	assert.NoError(VerifyChecksum(raw))

	var expected uint16
	for _, b := range raw[0x07:0x36] {
		expected += uint16(b)
	}
	stored, ok := raw.Checksum()
	assert.True(ok)
	assert.Equal(expected, stored)

	raw[offsetV1+3]++
	err := VerifyChecksum(raw)
	assert.ErrorIs(err, ErrChecksum)
	assert.ErrorIs(err, ErrDecode, "checksum errors are decode errors")

	err = VerifyChecksum(raw[:offsetChecksum])
	assert.ErrorIs(err, ErrChecksum, "missing trailer")
}

func TestErrorKind(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("", ErrorKind(nil))
	assert.Equal("timeout", ErrorKind(ErrTimeout))
	assert.Equal("protocol", ErrorKind(errors.Join(errors.New("x"), ErrProtocol)))
	assert.Equal("checksum", ErrorKind(VerifyChecksum(nil)))
	assert.Equal("decode", ErrorKind(ErrDecode))
	assert.Equal("unknown", ErrorKind(errors.New("other")))
}
