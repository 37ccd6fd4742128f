package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"restore-site/config"
	"restore-site/ffmpeg"
	"restore-site/gemini"
	"restore-site/pipeline"
	"restore-site/restorations"
	"restore-site/videos"
)

// envCredentials is the deployment's credential-selection capability:
// the access credential lives in the environment, and "re-selection"
// is telling the operator to rotate it.
type envCredentials struct{}

func (envCredentials) HasCredential() bool {
	return config.GetGeminiAPIKey() != ""
}

func (envCredentials) PromptSelection() {
	log.Warnln("the remote service rejected the access credential;",
		"set RESTORE_SITE_GEMINI_API_KEY to a fresh key and retry")
}

// one in-flight run per video; delete cancels through this registry
var runsMu sync.Mutex
var running = map[uint]context.CancelFunc{}

func runInFlight(videoID uint) bool {
	runsMu.Lock()
	defer runsMu.Unlock()
	_, ok := running[videoID]
	return ok
}

// CancelRun stops the polling of a video's in-flight run, if any.
func CancelRun(videoID uint) {
	runsMu.Lock()
	defer runsMu.Unlock()
	if cancel, ok := running[videoID]; ok {
		cancel()
		delete(running, videoID)
	}
}

// startRun launches the restoration pipeline for video in the
// background, reporting transitions into the restoration row.
func startRun(rest restorations.Restoration, video videos.Video) error {
	runsMu.Lock()
	if _, ok := running[video.ID]; ok {
		runsMu.Unlock()
		return fmt.Errorf("a restoration is already running for this video")
	}
	ctx, cancel := context.WithCancel(context.Background())
	running[video.ID] = cancel
	runsMu.Unlock()

	in := pipeline.Input{Source: video.PipelineSource(config.GetDataDir())}
	if video.HasPayload() {
		payload, err := os.ReadFile(filepath.Join(config.GetDataDir(), video.Filename))
		if err != nil {
			CancelRun(video.ID)
			return err
		}
		in.Payload = payload
		in.PayloadMime = video.MimeType
	}

	runner := &pipeline.Runner{
		AI:       gemini.New(config.GetGeminiBaseURL(), config.GetGeminiAPIKey()),
		Capture:  ffmpeg.CaptureFrame,
		Selector: envCredentials{},
		Interval: config.GetPollInterval(),
	}

	go func() {
		defer CancelRun(video.ID)

		result, err := runner.Run(ctx, in, func(u pipeline.Update) {
			if err := restorations.SetStatus(rest.ID, u.Status, u.Message, u.Progress); err != nil {
				log.Errorln(err)
			}
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Infoln("restoration", rest.ID, "cancelled")
				return
			}
			if err := restorations.SetFailed(rest.ID, err.Error()); err != nil {
				log.Errorln(err)
			}
			return
		}
		if err := restorations.SetCompleted(rest.ID, result); err != nil {
			log.Errorln(err)
		}
	}()

	return nil
}
