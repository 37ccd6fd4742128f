package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restore-site/gemini"
	"restore-site/restorations"
)

type fakeModel struct {
	describeCalls []string // instructions, in order
	describeMimes []string
	describeErr   error

	imagePrompts []string
	imageErr     error

	startPrompts []string
	startErr     error

	polls     int
	doneAfter int // poll count at which the op reports done
	resultURI string
	opError   *gemini.RemoteError
	pollErr   error
}

func (f *fakeModel) Describe(ctx context.Context, data []byte, mime, instruction string) (string, error) {
	f.describeCalls = append(f.describeCalls, instruction)
	f.describeMimes = append(f.describeMimes, mime)
	if f.describeErr != nil {
		return "", f.describeErr
	}
	return "a detailed description", nil
}

func (f *fakeModel) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	f.imagePrompts = append(f.imagePrompts, prompt)
	if f.imageErr != nil {
		return nil, "", f.imageErr
	}
	return []byte("png-bytes"), "image/png", nil
}

func (f *fakeModel) StartVideo(ctx context.Context, image []byte, mime, prompt string) (string, error) {
	f.startPrompts = append(f.startPrompts, prompt)
	if f.startErr != nil {
		return "", f.startErr
	}
	return "operations/abc123", nil
}

func (f *fakeModel) PollVideo(ctx context.Context, name string) (*gemini.Operation, error) {
	f.polls++
	if f.pollErr != nil {
		return nil, f.pollErr
	}
	op := &gemini.Operation{Name: name}
	if f.opError != nil {
		op.Done = true
		op.Error = f.opError
		return op, nil
	}
	if f.polls >= f.doneAfter {
		op.Done = true
		if f.resultURI != "" {
			op.Response = &gemini.OperationResponse{
				GenerateVideoResponse: gemini.GenerateVideoResponse{
					GeneratedSamples: []gemini.GeneratedSample{
						{Video: gemini.VideoRef{URI: f.resultURI}},
					},
				},
			}
		}
	}
	return op, nil
}

func (f *fakeModel) ResultURL(uri string) string {
	return uri + "?key=test"
}

type fakeSelector struct {
	has     bool
	prompts int
}

func (s *fakeSelector) HasCredential() bool { return s.has }
func (s *fakeSelector) PromptSelection()    { s.prompts++ }

func goodCapture(src string) ([]byte, error) { return []byte("frame"), nil }

func newRunner(ai ModelClient) *Runner {
	return &Runner{
		AI:       ai,
		Capture:  goodCapture,
		Selector: &fakeSelector{has: true},
		Interval: time.Millisecond,
	}
}

func TestRunHappyPath(t *testing.T) {
	ai := &fakeModel{doneAfter: 3, resultURI: "https://files.example/v.mp4"}
	r := newRunner(ai)

	var updates []Update
	url, err := r.Run(context.Background(),
		Input{Source: "in.mp4", Payload: []byte("video"), PayloadMime: "video/mp4"},
		func(u Update) { updates = append(updates, u) })
	require.NoError(t, err)
	assert.Equal(t, "https://files.example/v.mp4?key=test", url)

	// one poll per interval until done, never fewer
	assert.Equal(t, 3, ai.polls)

	// status checkpoints appear in order with monotone progress
	require.GreaterOrEqual(t, len(updates), 3)
	assert.Equal(t, restorations.StatusAnalyzing, updates[0].Status)
	assert.Equal(t, 10, updates[0].Progress)
	assert.Equal(t, restorations.StatusCleaningFrame, updates[1].Status)
	assert.Equal(t, 40, updates[1].Progress)
	prev := 0
	for _, u := range updates {
		assert.GreaterOrEqual(t, u.Progress, prev)
		prev = u.Progress
	}
	assert.Equal(t, restorations.StatusGenerating, updates[len(updates)-1].Status)
}

func TestRunUploadedPayloadDescribed(t *testing.T) {
	ai := &fakeModel{doneAfter: 1, resultURI: "https://files.example/v.mp4"}
	r := newRunner(ai)

	_, err := r.Run(context.Background(),
		Input{Source: "in.mp4", Payload: []byte("video"), PayloadMime: "video/mp4"},
		func(Update) {})
	require.NoError(t, err)

	// first describe sees the full video, second sees the frame
	require.Len(t, ai.describeMimes, 2)
	assert.Equal(t, "video/mp4", ai.describeMimes[0])
	assert.Equal(t, "image/png", ai.describeMimes[1])
}

func TestRunLinkFallsBackToFrame(t *testing.T) {
	ai := &fakeModel{doneAfter: 1, resultURI: "https://files.example/v.mp4"}
	r := newRunner(ai)

	_, err := r.Run(context.Background(),
		Input{Source: "https://example.com/v.mp4"},
		func(Update) {})
	require.NoError(t, err)

	require.Len(t, ai.describeMimes, 2)
	assert.Equal(t, "image/png", ai.describeMimes[0])
}

func TestRunNoCredential(t *testing.T) {
	ai := &fakeModel{doneAfter: 1, resultURI: "x"}
	r := newRunner(ai)
	r.Selector = &fakeSelector{has: false}

	_, err := r.Run(context.Background(), Input{Source: "in.mp4"}, func(Update) {})
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Empty(t, ai.describeCalls)
}

func TestRunNoFrame(t *testing.T) {
	ai := &fakeModel{doneAfter: 1, resultURI: "x"}
	r := newRunner(ai)
	r.Capture = func(string) ([]byte, error) { return nil, errors.New("unreadable") }

	_, err := r.Run(context.Background(), Input{Source: "bad.mp4"}, func(Update) {})
	assert.ErrorIs(t, err, ErrNoFrame)
	// no remote call is made without a frame
	assert.Empty(t, ai.describeCalls)
}

func TestRunDescribeFailureShortCircuits(t *testing.T) {
	ai := &fakeModel{describeErr: errors.New("model overloaded")}
	r := newRunner(ai)

	_, err := r.Run(context.Background(), Input{Source: "in.mp4"}, func(Update) {})
	require.Error(t, err)
	assert.Equal(t, "model overloaded", err.Error())
	assert.Empty(t, ai.imagePrompts)
	assert.Empty(t, ai.startPrompts)
	assert.Zero(t, ai.polls)
}

func TestRunDoneWithoutResult(t *testing.T) {
	ai := &fakeModel{doneAfter: 1} // done, but no sample produced
	r := newRunner(ai)

	_, err := r.Run(context.Background(), Input{Source: "in.mp4"}, func(Update) {})
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestRunOperationError(t *testing.T) {
	ai := &fakeModel{opError: &gemini.RemoteError{Code: 400, Message: "unsafe prompt"}}
	r := newRunner(ai)

	_, err := r.Run(context.Background(), Input{Source: "in.mp4"}, func(Update) {})
	require.Error(t, err)
	// the remote message reaches the caller verbatim
	assert.Equal(t, "unsafe prompt", err.Error())
}

func TestRunCredentialExpiredPromptsOnce(t *testing.T) {
	ai := &fakeModel{describeErr: &gemini.RemoteError{Code: 403, Message: "requested entity was not found"}}
	sel := &fakeSelector{has: true}
	r := newRunner(ai)
	r.Selector = sel

	_, err := r.Run(context.Background(), Input{Source: "in.mp4"}, func(Update) {})
	assert.ErrorIs(t, err, ErrCredentialExpired)
	assert.Equal(t, 1, sel.prompts)
}

func TestRunCancelStopsPolling(t *testing.T) {
	ai := &fakeModel{doneAfter: 1000, resultURI: "x"}
	r := newRunner(ai)
	r.Interval = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, Input{Source: "in.mp4"}, func(Update) {})
		done <- err
	}()

	time.Sleep(120 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}
