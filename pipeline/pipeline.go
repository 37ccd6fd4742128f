// Package pipeline sequences the three remote model operations that
// turn a watermarked source video into a regenerated clean one:
// describe the content, reconstruct a clean first frame, then generate
// a new video from that frame and description. One run per video; all
// failures are terminal for the run and recovery is a manual retry.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restore-site/gemini"
	"restore-site/metrics"
	"restore-site/restorations"
)

var (
	// ErrNoFrame: the source video yielded no capturable frame.
	ErrNoFrame = errors.New("couldn't capture a frame from the source video")
	// ErrNoResult: generation reported done but produced no result URL.
	ErrNoResult = errors.New("generation finished but no result video was produced")
	// ErrNoCredential: no access credential has been selected.
	ErrNoCredential = errors.New("no access credential selected")
	// ErrCredentialExpired: the remote layer rejected the credential; a
	// re-selection was prompted and the user must retry manually.
	ErrCredentialExpired = errors.New("access credential expired, a new one was requested; please retry")
)

const describeInstruction = "Describe the visual content of this video in detail: " +
	"the subjects, their movement, and the camera framing. " +
	"Do not mention any watermarks, logos, or text overlays."

// The clean frame is rebuilt indirectly: the multimodal model cannot
// reliably return edited image bytes here, so we describe the frame
// exhaustively and regenerate a new image from that description.
const frameInstruction = "Describe this image in extreme detail, so that it could be " +
	"recreated from the description alone: subjects, colors, lighting, " +
	"composition and background. Ignore any watermark text or overlay " +
	"graphics entirely and do not mention them."

const imageQualifier = " High quality, photorealistic, 16:9 cinematic still."

const videoQualifier = " High quality, smooth natural motion."

// Update is a coarse progress report at a fixed checkpoint. It carries
// no error field: failures travel through Run's error return only.
type Update struct {
	Status   restorations.Status
	Message  string
	Progress int
}

// Input is one source video. Payload holds the full bytes when the
// video was uploaded; for pasted links it is empty and the describe
// stage falls back to the captured frame.
type Input struct {
	Source      string // local path or direct URL, readable by Capture
	Payload     []byte
	PayloadMime string
}

type Runner struct {
	AI       ModelClient
	Capture  CaptureFunc
	Selector CredentialSelector // optional
	Interval time.Duration      // delay between generation polls
}

// Run executes the four stages in order and returns the retrievable
// result URL. The context is honored between poll iterations, so
// cancelling it actually stops outstanding polling.
func (r *Runner) Run(ctx context.Context, in Input, report func(Update)) (string, error) {
	interval := r.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	if r.Selector != nil && !r.Selector.HasCredential() {
		return "", ErrNoCredential
	}

	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	result, err := r.run(ctx, in, report, interval)
	switch {
	case err == nil:
		metrics.RunsTotal.WithLabelValues("completed").Inc()
	case errors.Is(err, context.Canceled):
		metrics.RunsTotal.WithLabelValues("cancelled").Inc()
	default:
		metrics.RunsTotal.WithLabelValues("failed").Inc()
	}
	return result, err
}

func (r *Runner) run(ctx context.Context, in Input, report func(Update), interval time.Duration) (string, error) {
	// capture
	report(Update{restorations.StatusAnalyzing, "capturing reference frame", 10})
	capStart := time.Now()
	frame, err := r.Capture(in.Source)
	if err != nil || len(frame) == 0 {
		return "", ErrNoFrame
	}
	metrics.StageDuration.WithLabelValues("capture").Observe(time.Since(capStart).Seconds())

	// describe: full payload when we have it, captured frame otherwise
	data, mime := in.Payload, in.PayloadMime
	if len(data) == 0 {
		data, mime = frame, "image/png"
	}
	descStart := time.Now()
	description, err := r.AI.Describe(ctx, data, mime, describeInstruction)
	if err != nil {
		return "", r.remoteFailure(err)
	}
	metrics.StageDuration.WithLabelValues("describe").Observe(time.Since(descStart).Seconds())

	// clean frame: describe the frame, then regenerate it
	report(Update{restorations.StatusCleaningFrame, "reconstructing a clean first frame", 40})
	cleanStart := time.Now()
	frameDescription, err := r.AI.Describe(ctx, frame, "image/png", frameInstruction)
	if err != nil {
		return "", r.remoteFailure(err)
	}
	cleanFrame, cleanMime, err := r.AI.GenerateImage(ctx, frameDescription+imageQualifier)
	if err != nil {
		return "", r.remoteFailure(err)
	}
	metrics.StageDuration.WithLabelValues("clean_frame").Observe(time.Since(cleanStart).Seconds())

	// generate: long-running remote op, re-fetched until done
	report(Update{restorations.StatusGenerating, "generating restored video", 60})
	genStart := time.Now()
	opName, err := r.AI.StartVideo(ctx, cleanFrame, cleanMime, description+videoQualifier)
	if err != nil {
		return "", r.remoteFailure(err)
	}

	polls := 0
	for {
		polls++
		report(Update{restorations.StatusGenerating,
			fmt.Sprintf("waiting for video generation (check %d)", polls), 60})

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}

		op, err := r.AI.PollVideo(ctx, opName)
		metrics.PollsTotal.Inc()
		if err != nil {
			return "", r.remoteFailure(err)
		}
		if op.Error != nil {
			return "", r.remoteFailure(op.Error)
		}
		if !op.Done {
			continue
		}

		uri := op.ResultURI()
		if uri == "" {
			return "", ErrNoResult
		}
		metrics.StageDuration.WithLabelValues("generate").Observe(time.Since(genStart).Seconds())
		return r.AI.ResultURL(uri), nil
	}
}

// remoteFailure maps a remote error to the run's failure. The one
// special case: an "entity not found" error means the credential is
// invalid, so prompt a re-selection and fail with a distinct message
// instead of silently retrying.
func (r *Runner) remoteFailure(err error) error {
	if gemini.IsCredentialError(err) && r.Selector != nil {
		r.Selector.PromptSelection()
		return ErrCredentialExpired
	}
	return err
}
