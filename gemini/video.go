package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

type seedImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoInstance struct {
	Prompt string     `json:"prompt"`
	Image  *seedImage `json:"image,omitempty"`
}

type videoParameters struct {
	NumberOfVideos int    `json:"numberOfVideos"`
	Resolution     string `json:"resolution"`
	AspectRatio    string `json:"aspectRatio"`
}

type videoRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

// VideoRef points at a generated video file.
type VideoRef struct {
	URI string `json:"uri"`
}

type GeneratedSample struct {
	Video VideoRef `json:"video"`
}

type GenerateVideoResponse struct {
	GeneratedSamples []GeneratedSample `json:"generatedSamples"`
}

type OperationResponse struct {
	GenerateVideoResponse GenerateVideoResponse `json:"generateVideoResponse"`
}

// Operation is the handle to an in-progress remote video generation.
// It is re-fetched by name until Done.
type Operation struct {
	Name     string             `json:"name"`
	Done     bool               `json:"done"`
	Error    *RemoteError       `json:"error,omitempty"`
	Response *OperationResponse `json:"response,omitempty"`
}

// ResultURI returns the generated video's URI, or "" when the
// operation produced none.
func (o *Operation) ResultURI() string {
	if o.Response == nil {
		return ""
	}
	samples := o.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return ""
	}
	return samples[0].Video.URI
}

// StartVideo submits a generation request seeded with an image and
// returns the long-running operation's name.
func (c *Client) StartVideo(ctx context.Context, image []byte, mime, prompt string) (string, error) {
	req := videoRequest{
		Instances: []videoInstance{{
			Prompt: prompt,
			Image: &seedImage{
				BytesBase64Encoded: base64.StdEncoding.EncodeToString(image),
				MimeType:           mime,
			},
		}},
		Parameters: videoParameters{
			NumberOfVideos: 1,
			Resolution:     "720p",
			AspectRatio:    "16:9",
		},
	}

	var op Operation
	path := fmt.Sprintf("/v1beta/models/%s:predictLongRunning", VideoModel)
	if err := c.post(ctx, path, req, &op); err != nil {
		return "", err
	}

	if op.Name == "" {
		return "", fmt.Errorf("remote did not return an operation handle")
	}
	return op.Name, nil
}

// PollVideo re-fetches a long-running operation by name.
func (c *Client) PollVideo(ctx context.Context, name string) (*Operation, error) {
	var op Operation
	if err := c.get(ctx, "/v1beta/"+strings.TrimPrefix(name, "/"), &op); err != nil {
		return nil, err
	}
	return &op, nil
}
