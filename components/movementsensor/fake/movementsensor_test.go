package fake

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/crazybot-rc/crazybot/logging"
)

func TestOrientationSensor(t *testing.T) {
	s := NewOrientationSensor()
	_, ok := s.Orientation()
	test.That(t, ok, test.ShouldBeFalse)

	roll := 0.5
	s.SetAxes(&roll, nil)
	_, ok = s.Orientation()
	test.That(t, ok, test.ShouldBeFalse)

	s.Set(0.25, -1)
	o, ok := s.Orientation()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, o.Roll, test.ShouldEqual, 0.25)
	test.That(t, o.Pitch, test.ShouldEqual, -1)

	openErr := errors.New("no sensor")
	s.SetOpenErr(openErr)
	opener := s.Opener()
	_, err := opener(context.Background(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeError, openErr)

	s.SetOpenErr(nil)
	opened, err := opener(context.Background(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opened.Alive(), test.ShouldBeTrue)
	s.Kill()
	test.That(t, opened.Alive(), test.ShouldBeFalse)
	test.That(t, opened.Close(context.Background()), test.ShouldBeNil)
	test.That(t, s.Closed(), test.ShouldBeTrue)
	test.That(t, s.Opens(), test.ShouldEqual, 2)

	_, err = opener(context.Background(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Alive(), test.ShouldBeTrue)
}
