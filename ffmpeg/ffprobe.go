package ffmpeg

import (
	"bytes"
	"os/exec"
	"strconv"
	"strings"
)

// runs ffprobe with the provided args and returns (stdout, stderr, error)
func Ffprobe(args ...string) ([]byte, []byte, error) {
	ffprobe := "ffprobe"
	log.Infoln(ffprobe, strings.Join(args, " "))
	cmd := exec.Command(ffprobe, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if err != nil {
		log.Errorf("ffprobe error: %v", err)
		log.Infoln("stderr:", stderr.String())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}

// Dimensions returns the decoded width and height of the first video
// stream of src. src may be a local path or a direct URL.
func Dimensions(src string) (uint, uint, error) {
	stdout, _, err := Ffprobe("-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=p=0", src)
	if err != nil {
		return 0, 0, err
	}

	parts := strings.Split(strings.TrimSpace(string(stdout)), ",")
	if len(parts) != 2 {
		return 0, 0, errMalformed("stream=width,height", string(stdout))
	}
	w, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint(w), uint(h), nil
}

// Length returns the duration in seconds of the media at src.
func Length(src string) (float64, error) {
	stdout, _, err := Ffprobe("-v", "error", "-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", src)
	if err != nil {
		return -1, err
	}

	result, err := strconv.ParseFloat(strings.TrimSpace(string(stdout)), 64)
	if err != nil {
		return -1, errMalformed("format=duration", string(stdout))
	}
	return result, nil
}
