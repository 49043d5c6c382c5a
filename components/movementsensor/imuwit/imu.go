package imuwit

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/crazybot-rc/crazybot/utils"
)

const (
	packetStart = 0x55
	anglePacket = 0x53
	// type, 8 data bytes, checksum and the next packet's start byte
	packetLen = 11
)

// parseWIT decodes a packet read up to and including the next start byte.
func (imu *Wit) parseWIT(line string) error {
	if checksum(line[:packetLen-2]) != line[packetLen-2] {
		imu.numBadReadings.Inc()
		return errors.Errorf("bad wit checksum for packet type %#x", line[0])
	}
	if line[0] != anglePacket {
		return nil
	}

	imu.mu.Lock()
	defer imu.mu.Unlock()
	imu.orientation.Roll = utils.DegToRad(scaleAngle(line[1], line[2]))
	imu.orientation.Pitch = utils.DegToRad(scaleAngle(line[3], line[4]))
	imu.orientation.Yaw = utils.DegToRad(scaleAngle(line[5], line[6]))
	imu.hasReading = true
	return nil
}

// scaleAngle converts a little endian signed reading into degrees.
func scaleAngle(lo, hi byte) float64 {
	raw := int16(binary.LittleEndian.Uint16([]byte{lo, hi}))
	return float64(raw) / 32768.0 * 180.0
}

// checksum is the low byte of the start byte plus the type and data bytes.
func checksum(body string) byte {
	sum := byte(packetStart)
	for i := 0; i < len(body); i++ {
		sum += body[i]
	}
	return sum
}
