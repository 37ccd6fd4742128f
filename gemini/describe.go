package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Describe sends media bytes to the multimodal model with an
// instruction and returns the free-text answer.
func (c *Client) Describe(ctx context.Context, data []byte, mime, instruction string) (string, error) {
	req := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{
					MimeType: mime,
					Data:     base64.StdEncoding.EncodeToString(data),
				}},
				{Text: instruction},
			},
		}},
	}

	var resp generateContentResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", DescribeModel)
	if err := c.post(ctx, path, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("model returned no description")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("model returned an empty description")
	}
	return text, nil
}
