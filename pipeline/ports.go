package pipeline

import (
	"context"

	"restore-site/gemini"
)

// ModelClient is the remote collaborator the pipeline drives. It is
// satisfied by *gemini.Client; tests substitute fakes.
type ModelClient interface {
	Describe(ctx context.Context, data []byte, mime, instruction string) (string, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
	StartVideo(ctx context.Context, image []byte, mime, prompt string) (string, error)
	PollVideo(ctx context.Context, name string) (*gemini.Operation, error)
	ResultURL(uri string) string
}

// CredentialSelector is the host-provided capability for picking an
// access credential. Consulted before the run starts and again when
// the remote layer reports the credential invalid.
type CredentialSelector interface {
	HasCredential() bool
	PromptSelection()
}

// CaptureFunc produces an encoded still frame from a local path or a
// direct URL, or no frame when the source has no decodable video.
type CaptureFunc func(src string) ([]byte, error)
