package imuwit

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/crazybot-rc/crazybot/logging"
)

// packet builds a full wire packet, starting with 0x55.
func packet(kind byte, words ...int16) []byte {
	p := []byte{packetStart, kind, 0, 0, 0, 0, 0, 0, 0, 0}
	for i, w := range words {
		binary.LittleEndian.PutUint16(p[2+2*i:], uint16(w))
	}
	sum := byte(0)
	for _, b := range p {
		sum += b
	}
	return append(p, sum)
}

func degreesToRaw(deg float64) int16 {
	return int16(deg / 180.0 * 32768.0)
}

func TestScaleAngle(t *testing.T) {
	test.That(t, scaleAngle(0, 0), test.ShouldEqual, 0)
	test.That(t, scaleAngle(0x00, 0x40), test.ShouldEqual, 90)
	test.That(t, scaleAngle(0x00, 0xc0), test.ShouldEqual, -90)
	test.That(t, scaleAngle(0x00, 0x80), test.ShouldEqual, -180)
}

func TestParseWIT(t *testing.T) {
	imu := &Wit{}
	_, ok := imu.Orientation()
	test.That(t, ok, test.ShouldBeFalse)

	// the reader sees everything after the start byte plus the next start byte
	line := string(append(packet(anglePacket, degreesToRaw(45), degreesToRaw(-30), degreesToRaw(10))[1:], packetStart))
	test.That(t, imu.parseWIT(line), test.ShouldBeNil)
	o, ok := imu.Orientation()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, o.Roll, test.ShouldAlmostEqual, math.Pi/4, 1e-3)
	test.That(t, o.Pitch, test.ShouldAlmostEqual, -math.Pi/6, 1e-3)
	test.That(t, o.Yaw, test.ShouldAlmostEqual, math.Pi/18, 1e-3)

	// other packet types are accepted but ignored
	line = string(append(packet(0x51, 100, 200, 300)[1:], packetStart))
	test.That(t, imu.parseWIT(line), test.ShouldBeNil)
	o2, _ := imu.Orientation()
	test.That(t, o2, test.ShouldResemble, o)

	bad := []byte(string(append(packet(anglePacket, 1, 2, 3)[1:], packetStart)))
	bad[packetLen-2]++
	err := imu.parseWIT(string(bad))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "checksum")
	test.That(t, imu.BadReadings(), test.ShouldEqual, 1)
}

func TestWitReader(t *testing.T) {
	logger := logging.NewTestLogger(t)
	r, w := io.Pipe()
	imu := NewWit(r, logger)

	go func() {
		// leading noise, then two angle packets
		w.Write([]byte{0x01, 0x02})
		w.Write(packet(anglePacket, degreesToRaw(-45), degreesToRaw(-90), 0))
		w.Write(packet(anglePacket, degreesToRaw(20), degreesToRaw(-60), 0))
		w.Write([]byte{packetStart})
	}()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		o, ok := imu.Orientation()
		test.That(tb, ok, test.ShouldBeTrue)
		test.That(tb, o.Roll, test.ShouldAlmostEqual, 20*math.Pi/180, 1e-3)
		test.That(tb, o.Pitch, test.ShouldAlmostEqual, -60*math.Pi/180, 1e-3)
	})

	test.That(t, imu.Close(context.Background()), test.ShouldBeNil)
	test.That(t, imu.Close(context.Background()), test.ShouldBeNil)
	w.Close()
}

func TestWitReaderLost(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	r, w := io.Pipe()
	imu := NewWit(r, logger)

	_, err := w.Write(append(packet(anglePacket, 0, degreesToRaw(-10), 0), packetStart))
	test.That(t, err, test.ShouldBeNil)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		_, ok := imu.Orientation()
		test.That(tb, ok, test.ShouldBeTrue)
	})

	test.That(t, imu.Alive(), test.ShouldBeTrue)

	w.CloseWithError(io.ErrUnexpectedEOF)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, imu.Alive(), test.ShouldBeFalse)
	})
	_, ok := imu.Orientation()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, logs.FilterMessage("wit sensor stopped reading").Len(), test.ShouldEqual, 1)
	err = imu.Err()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unexpected EOF")
	test.That(t, imu.Close(context.Background()), test.ShouldBeNil)
}

func TestOpenRequiresPort(t *testing.T) {
	_, err := Open(context.Background(), Config{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "port")
}
