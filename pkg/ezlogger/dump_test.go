package ezlogger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDump(t *testing.T) {

	assert := assert.New(t)

	raw := Encode(TestFrame())
	out := Dump(raw)

	assert.Contains(out, "Total number of bytes received: 56")
	assert.Contains(out, "Data length: 49")
	assert.Contains(out, "00000906\t Voltage 1 (0.1V units): 2310")
	assert.Contains(out, "FFFFFF0B\t Meter power (1W units): -245")
	assert.Contains(out, "Data checksum, calculated =")
}

func TestDumpTruncated(t *testing.T) {

	assert := assert.New(t)

	out := Dump(Encode(TestFrame())[:0x20])
	assert.Contains(out, "Voltage 3 (0.1V units): 2327")
	assert.Contains(out, "Power 1 (1W units): missing")
	assert.NotContains(out, "checksum")

	out = Dump(RawResponse{0x04, 0x52})
	assert.Contains(out, "truncated header")
}
