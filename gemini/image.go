package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
)

type imageRequest struct {
	Instances []struct {
		Prompt string `json:"prompt"`
	} `json:"instances"`
	Parameters struct {
		SampleCount    int    `json:"sampleCount"`
		AspectRatio    string `json:"aspectRatio"`
		OutputMimeType string `json:"outputMimeType"`
	} `json:"parameters"`
}

type imageResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage synthesizes one 16:9 still from a text prompt and
// returns its decoded bytes and mime type.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	var req imageRequest
	req.Instances = append(req.Instances, struct {
		Prompt string `json:"prompt"`
	}{Prompt: prompt})
	req.Parameters.SampleCount = 1
	req.Parameters.AspectRatio = "16:9"
	req.Parameters.OutputMimeType = "image/png"

	var resp imageResponse
	path := fmt.Sprintf("/v1beta/models/%s:predict", ImageModel)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return nil, "", err
	}

	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return nil, "", fmt.Errorf("model returned no image")
	}

	data, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, "", fmt.Errorf("couldn't decode image bytes: %w", err)
	}

	mime := resp.Predictions[0].MimeType
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}
