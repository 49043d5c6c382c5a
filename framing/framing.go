// Package framing encodes motor values into the vehicle's ASCII wire frame.
//
// A frame is "42,<N>,119,<v0>,...,<vk-1>," where N is the number of values plus one. There is no
// checksum and no terminator; the receiving firmware splits on commas.
package framing

import (
	"strconv"

	"github.com/crazybot-rc/crazybot/control"
)

const (
	// MessageType opens every frame.
	MessageType = 42
	// SubType follows the length field.
	SubType = 119
)

// Encode returns the frame carrying values. An empty list still produces the empty value slot the
// firmware expects: "42,1,119,,".
func Encode(values []int) []byte {
	buf := make([]byte, 0, 12+4*len(values))
	buf = strconv.AppendInt(buf, MessageType, 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(len(values)+1), 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, SubType, 10)
	buf = append(buf, ',')
	for i, v := range values {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
	}
	return append(buf, ',')
}

// EncodeCommand returns the frame for a motor command.
func EncodeCommand(cmd control.Command) []byte {
	return Encode(cmd.Values())
}
