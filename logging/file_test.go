package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestNewRotatingLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crazybot.log")
	logger, closer, err := NewRotatingLogger("crazybot", "info", FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1})
	test.That(t, err, test.ShouldBeNil)

	logger.Debug("not written")
	logger.Sublogger("driver").Infow("driver started", "backend", "keyboard")
	test.That(t, closer.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, `"msg":"driver started"`)
	test.That(t, string(contents), test.ShouldContainSubstring, `"logger":"crazybot.driver"`)
	test.That(t, string(contents), test.ShouldContainSubstring, `"backend":"keyboard"`)
	test.That(t, string(contents), test.ShouldNotContainSubstring, "not written")

	_, _, err = NewRotatingLogger("crazybot", "loud", FileOptions{Path: path})
	test.That(t, err, test.ShouldNotBeNil)
}
