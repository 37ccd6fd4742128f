package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-key")
}

func TestDescribe(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"  a river "},{"text":"at dusk"}]}}]}`))
	})

	text, err := c.Describe(context.Background(), []byte("vid"), "video/mp4", "describe this")
	require.NoError(t, err)
	assert.Equal(t, "a river at dusk", text)
	assert.Equal(t, "/v1beta/models/"+DescribeModel+":generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	parts := gotBody["contents"].([]interface{})[0].(map[string]interface{})["parts"].([]interface{})
	require.Len(t, parts, 2)
	inline := parts[0].(map[string]interface{})["inline_data"].(map[string]interface{})
	assert.Equal(t, "video/mp4", inline["mime_type"])
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("vid")), inline["data"])
	assert.Equal(t, "describe this", parts[1].(map[string]interface{})["text"])
}

func TestDescribeEmptyAnswer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"   "}]}}]}`))
	})

	_, err := c.Describe(context.Background(), []byte("vid"), "video/mp4", "x")
	assert.Error(t, err)
}

func TestDescribeRemoteError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"status":"PERMISSION_DENIED","message":"requested entity was not found"}}`))
	})

	_, err := c.Describe(context.Background(), []byte("vid"), "video/mp4", "x")
	require.Error(t, err)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	// the remote's message comes through verbatim
	assert.Equal(t, "requested entity was not found", err.Error())
	assert.True(t, IsCredentialError(err))
}

func TestGenerateImage(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		payload := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		w.Write([]byte(`{"predictions":[{"bytesBase64Encoded":"` + payload + `","mimeType":"image/png"}]}`))
	})

	data, mime, err := c.GenerateImage(context.Background(), "a clean frame")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "/v1beta/models/"+ImageModel+":predict", gotPath)

	params := gotBody["parameters"].(map[string]interface{})
	assert.Equal(t, float64(1), params["sampleCount"])
	assert.Equal(t, "16:9", params["aspectRatio"])
}

func TestGenerateImageNoPredictions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"predictions":[]}`))
	})

	_, _, err := c.GenerateImage(context.Background(), "x")
	assert.Error(t, err)
}

func TestStartVideo(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"name":"operations/xyz"}`))
	})

	name, err := c.StartVideo(context.Background(), []byte("img"), "image/png", "make it move")
	require.NoError(t, err)
	assert.Equal(t, "operations/xyz", name)
	assert.Equal(t, "/v1beta/models/"+VideoModel+":predictLongRunning", gotPath)

	inst := gotBody["instances"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "make it move", inst["prompt"])
	img := inst["image"].(map[string]interface{})
	assert.Equal(t, "image/png", img["mimeType"])
	params := gotBody["parameters"].(map[string]interface{})
	assert.Equal(t, float64(1), params["numberOfVideos"])
}

func TestStartVideoNoHandle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := c.StartVideo(context.Background(), []byte("img"), "image/png", "x")
	assert.Error(t, err)
}

func TestPollVideo(t *testing.T) {
	var gotPath, gotMethod string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{
			"name":"operations/xyz","done":true,
			"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://files.example/v.mp4"}}]}}}`))
	})

	op, err := c.PollVideo(context.Background(), "operations/xyz")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/v1beta/operations/xyz", gotPath)
	assert.True(t, op.Done)
	assert.Equal(t, "https://files.example/v.mp4", op.ResultURI())
}

func TestPollVideoPending(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"operations/xyz","done":false}`))
	})

	op, err := c.PollVideo(context.Background(), "operations/xyz")
	require.NoError(t, err)
	assert.False(t, op.Done)
	assert.Equal(t, "", op.ResultURI())
}

func TestResultURL(t *testing.T) {
	c := New("https://api.example", "se/cret")

	assert.Equal(t, "https://x/v.mp4?key=se%2Fcret", c.ResultURL("https://x/v.mp4"))
	assert.Equal(t, "https://x/v.mp4?alt=media&key=se%2Fcret", c.ResultURL("https://x/v.mp4?alt=media"))
	assert.Equal(t, "", c.ResultURL(""))
}
