package ffmpeg

import (
	"fmt"
)

// ErrNoDimensions is returned by CaptureFrame when the source has no
// decodable video stream, so no frame can exist.
var ErrNoDimensions = fmt.Errorf("video has no decoded dimensions")

func errMalformed(query, got string) error {
	return fmt.Errorf("couldn't parse ffprobe %s output: %q", query, got)
}

// CaptureFrame returns the first decodable frame of src encoded as PNG.
// src may be a local path (uploads) or a direct URL (pasted links);
// ffmpeg reads both. Returns no frame, never a malformed image, when
// the source has zero decoded dimensions or cannot be read.
func CaptureFrame(src string) ([]byte, error) {
	w, h, err := Dimensions(src)
	if err != nil {
		return nil, err
	}
	if w == 0 || h == 0 {
		return nil, ErrNoDimensions
	}

	stdout, _, err := Ffmpeg("-v", "error", "-i", src,
		"-frames:v", "1",
		"-f", "image2pipe", "-c:v", "png",
		"pipe:1")
	if err != nil {
		return nil, err
	}
	if len(stdout) == 0 {
		return nil, ErrNoDimensions
	}
	return stdout, nil
}
