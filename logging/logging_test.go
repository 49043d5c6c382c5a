package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.viam.com/test"
)

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)

	logger.Infow("backend ready", "backend", "keyboard")
	logger.Sublogger("link").Warn("write timed out")

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("backend ready").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterField(zap.String("backend", "keyboard")).Len(), test.ShouldEqual, 1)

	entries := logs.FilterMessage("write timed out").All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "link")
}

func TestNewLoggerAtLevel(t *testing.T) {
	logger, err := NewLoggerAtLevel("crazybot", "")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger, test.ShouldNotBeNil)

	logger, err = NewLoggerAtLevel("crazybot", "warn")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger, test.ShouldNotBeNil)

	_, err = NewLoggerAtLevel("crazybot", "loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid log level")
}

func TestGlobal(t *testing.T) {
	prev := Global()
	defer ReplaceGlobal(prev)

	logger := NewTestLogger(t)
	ReplaceGlobal(logger)
	test.That(t, Global(), test.ShouldEqual, logger)
}
