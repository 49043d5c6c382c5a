package framing

import (
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/crazybot-rc/crazybot/control"
)

func TestEncode(t *testing.T) {
	test.That(t, string(Encode([]int{10, 20, 1})), test.ShouldEqual, "42,4,119,10,20,1,")
	test.That(t, string(Encode([]int{255, 0, 0})), test.ShouldEqual, "42,4,119,255,0,0,")
	test.That(t, string(Encode([]int{7})), test.ShouldEqual, "42,2,119,7,")
	test.That(t, string(Encode(nil)), test.ShouldEqual, "42,1,119,,")
	test.That(t, string(Encode([]int{-3, 1000})), test.ShouldEqual, "42,3,119,-3,1000,")
}

func TestEncodeShape(t *testing.T) {
	for k := 1; k <= 8; k++ {
		values := make([]int, k)
		for i := range values {
			values[i] = i * 31
		}
		frame := string(Encode(values))
		test.That(t, frame, test.ShouldStartWith, "42,")
		test.That(t, frame, test.ShouldEndWith, ",")

		fields := strings.Split(strings.TrimSuffix(frame, ","), ",")
		test.That(t, fields, test.ShouldHaveLength, k+3)
		test.That(t, fields[1], test.ShouldEqual, strconv.Itoa(k+1))
		test.That(t, fields[2], test.ShouldEqual, "119")
	}
}

func TestEncodeCommand(t *testing.T) {
	cmd := control.Mix(control.Wheel{Power: 100}, control.DefaultScales, true)
	test.That(t, string(EncodeCommand(cmd)), test.ShouldEqual, "42,4,119,255,255,0,")
}
