package ffmpeg

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	Init(logger)
}

func TestCaptureFrameUnreadableSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-file.mp4")

	frame, err := CaptureFrame(missing)
	require.Error(t, err)
	assert.Empty(t, frame)
}
