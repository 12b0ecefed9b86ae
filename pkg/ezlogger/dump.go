package ezlogger

import (
	"encoding/binary"
	"fmt"
	"strings"
)

type dumpField struct {
	offset int
	size   int
	label  string
}

var dumpFields = []dumpField{
	{offsetV1, 4, "Voltage 1 (0.1V units)"},
	{offsetV2, 4, "Voltage 2 (0.1V units)"},
	{offsetV3, 4, "Voltage 3 (0.1V units)"},
	{offsetI1, 4, "Current 1 (0.01A units)"},
	{offsetI2, 4, "Current 2 (0.01A units)"},
	{offsetI3, 4, "Current 3 (0.01A units)"},
	{offsetP1, 4, "Power 1 (1W units)"},
	{offsetP2, 4, "Power 2 (1W units)"},
	{offsetP3, 4, "Power 3 (1W units)"},
	{offsetMetersPower, 4, "Meter power (1W units)"},
	{offsetInvPower, 4, "Inverters power (1W units)"},
}

// Dump renders a field by field hex view of a raw response.
func Dump(raw RawResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total number of bytes received: %d\n\n", len(raw))
	fmt.Fprintf(&sb, "Bytes:\n%q\n\n", []byte(raw))
	sb.WriteString("Fields:\n")

	if len(raw) < HeaderSize {
		fmt.Fprintf(&sb, "%X\t truncated header\n", []byte(raw))
		return sb.String()
	}
	fmt.Fprintf(&sb, "%X\t Header: %q\n", raw[:offsetDeclaredSize], raw[:offsetDeclaredSize])
	fmt.Fprintf(&sb, "%02X\t\t Data length: %d\n", raw[offsetDeclaredSize], raw[offsetDeclaredSize])
	if len(raw) >= offsetV1 {
		fmt.Fprintf(&sb, "%X\t\t Unknown (request code?)\n", raw[offsetChecksumStart:offsetV1])
	}

	for _, f := range dumpFields {
		if len(raw) < f.offset+f.size {
			fmt.Fprintf(&sb, "--\t\t %s: missing\n", f.label)
			continue
		}
		field := raw[f.offset : f.offset+f.size]
		fmt.Fprintf(&sb, "%X\t %s: %d\n", field, f.label, int32(binary.BigEndian.Uint32(field)))
	}

	if stored, ok := raw.Checksum(); ok {
		fmt.Fprintf(&sb, "%04X\t\t Data checksum, calculated = %04X\n", stored, ComputeChecksum(raw))
	}
	return sb.String()
}
