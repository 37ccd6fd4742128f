package videos

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"gorm.io/gorm"

	"restore-site/database"
)

// Source says where a video's bytes live: uploads have a payload file
// under the data dir, links only have a remote URL.
type Source string

const (
	SourceUpload Source = "upload"
	SourceLink   Source = "link"
)

type Video struct {
	gorm.Model
	UserID   uint
	Source   Source
	URL      string // remote URL (link source)
	Filename string // stored payload under the data dir (upload source)
	MimeType string
	Size     int64
	Width    uint
	Height   uint
	Length   float64 // seconds
}

// HasPayload reports whether the full video bytes are available locally.
// Link-sourced videos never have a payload: the pipeline analyzes their
// captured frame only.
func (v Video) HasPayload() bool {
	return v.Source == SourceUpload && v.Filename != ""
}

// PipelineSource is what the capture stage reads: a local path for
// uploads, the remote URL for links.
func (v Video) PipelineSource(dataDir string) string {
	if v.HasPayload() {
		return path.Join(dataDir, v.Filename)
	}
	return v.URL
}

var linkExts = map[string]string{
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".m4v":  "video/x-m4v",
	".avi":  "video/x-msvideo",
}

// AcceptLink validates a pasted URL by its file suffix. Only direct
// links to a known video container are accepted; there is no network
// check of reachability. Returns the guessed mime type.
func AcceptLink(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("not a valid http(s) URL")
	}
	ext := strings.ToLower(path.Ext(u.Path))
	mime, ok := linkExts[ext]
	if !ok {
		return "", fmt.Errorf("only direct links to a video file (%s) are supported", strings.Join(knownExts(), ", "))
	}
	return mime, nil
}

func knownExts() []string {
	exts := make([]string, 0, len(linkExts))
	for ext := range linkExts {
		exts = append(exts, ext)
	}
	// stable order for the user-facing message
	order := []string{".mp4", ".mov", ".webm", ".mkv", ".m4v", ".avi"}
	out := exts[:0]
	for _, ext := range order {
		if _, ok := linkExts[ext]; ok {
			out = append(out, ext)
		}
	}
	return out
}

func Get(id uint) (Video, error) {
	var video Video
	err := database.Get().First(&video, "id = ?", id).Error
	return video, err
}
