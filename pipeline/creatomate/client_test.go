package creatomate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/reelforge/reelforge/pipeline/template"
)

func testTemplate() *template.RenderTemplate {
	return &template.RenderTemplate{
		OutputFormat: "mp4",
		Width:        1080,
		Height:       1920,
		Elements:     []template.Element{},
	}
}

func TestSubmitSendsTemplateAndMetadata(t *testing.T) {
	var got RenderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/renders", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`[{"id":"render-1","status":"planned"}]`))
	}))
	defer server.Close()

	client := &Client{
		baseURL:    server.URL,
		apiKey:     "test-key",
		webhookURL: "https://api.example.com/api/webhook/render",
		client:     server.Client(),
	}
	renderId, err := client.Submit(context.Background(), testTemplate(), &Metadata{RequestId: "req-1", UserId: 7})
	require.NoError(t, err)
	assert.Equal(t, "render-1", renderId)

	assert.Equal(t, "https://api.example.com/api/webhook/render", got.WebhookURL)
	meta := &Metadata{}
	require.NoError(t, json.Unmarshal([]byte(got.Metadata), meta))
	assert.Equal(t, "req-1", meta.RequestId)
	assert.Equal(t, 7, meta.UserId)
	require.NotNil(t, got.Source)
	assert.Equal(t, "mp4", got.Source.OutputFormat)
}

func TestSubmitSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"hint":"","message":"invalid source"}`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, apiKey: "test-key", client: server.Client()}
	_, err := client.Submit(context.Background(), testTemplate(), &Metadata{RequestId: "req-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source")
}

func TestSubmitRejectsEmptyRenderList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := &Client{baseURL: server.URL, apiKey: "test-key", client: server.Client()}
	_, err := client.Submit(context.Background(), testTemplate(), &Metadata{RequestId: "req-1"})
	require.Error(t, err)
}
