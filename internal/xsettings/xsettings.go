// Package xsettings encodes the _XSETTINGS_S0 property payload:
// little-endian byte order marker, serial, count, then per-setting
// records with 4-byte padding after each name.
package xsettings

import (
	"bytes"
	"encoding/binary"
)

// settingTypeInteger is the type tag of an Integer XSETTINGS record;
// this bridge only ever emits Integer settings.
const settingTypeInteger = 0

// littleEndianMarker is the first byte of the XSETTINGS blob: 0 means
// little-endian, 1 big-endian. The bridge always emits little-endian.
const littleEndianMarker = 0

// Setting is one name/value pair to encode.
type Setting struct {
	Name  string
	Value int32
}

// Settings holds the three bridge-maintained XSETTINGS values,
// encoded in a fixed order for reproducibility.
type Settings struct {
	XftDPI                 int32
	GdkWindowScalingFactor int32
	GdkUnscaledDPI         int32
}

// list returns the three settings in a fixed, documented order.
func (s Settings) list() []Setting {
	return []Setting{
		{Name: "Xft/DPI", Value: s.XftDPI},
		{Name: "Gdk/WindowScalingFactor", Value: s.GdkWindowScalingFactor},
		{Name: "Gdk/UnscaledDPI", Value: s.GdkUnscaledDPI},
	}
}

// Encode serializes s into the _XSETTINGS_S0 property wire format:
// byte-order marker, 3 reserved bytes, serial (uint32), count
// (uint32), then per-setting records of (type byte, 1 reserved byte,
// name-length uint16, name bytes padded to a 4-byte boundary, 4-byte
// serial-of-last-change, value).
func Encode(serial uint32, s Settings) []byte {
	settings := s.list()

	var buf bytes.Buffer
	buf.WriteByte(littleEndianMarker)
	buf.Write([]byte{0, 0, 0}) // padding
	binary.Write(&buf, binary.LittleEndian, serial)
	binary.Write(&buf, binary.LittleEndian, uint32(len(settings)))

	for _, st := range settings {
		buf.WriteByte(settingTypeInteger)
		buf.WriteByte(0) // padding
		nameLen := uint16(len(st.Name))
		binary.Write(&buf, binary.LittleEndian, nameLen)
		buf.WriteString(st.Name)
		if pad := pad4(len(st.Name)); pad > 0 {
			buf.Write(make([]byte, pad))
		}
		binary.Write(&buf, binary.LittleEndian, serial) // last-change serial
		binary.Write(&buf, binary.LittleEndian, uint32(st.Value))
	}

	return buf.Bytes()
}

// pad4 returns the number of padding bytes needed to round n up to a
// multiple of 4.
func pad4(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}
