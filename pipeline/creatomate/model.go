package creatomate

import (
	"encoding/json"

	"github.com/reelforge/reelforge/pipeline/template"
)

// RenderRequest is the submit payload. Metadata is echoed back verbatim on
// the webhook and carries the correlation ids.
type RenderRequest struct {
	Source     *template.RenderTemplate `json:"source"`
	WebhookURL string                   `json:"webhook_url,omitempty"`
	Metadata   string                   `json:"metadata,omitempty"`
}

type Render struct {
	Id           string `json:"id"`
	Status       string `json:"status"`
	Url          string `json:"url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Metadata     string `json:"metadata,omitempty"`
}

type errorResponse struct {
	Hint    string `json:"hint"`
	Message string `json:"message"`
}

// Render statuses reported by the service.
const (
	RenderStatusPlanned    = "planned"
	RenderStatusRendering  = "rendering"
	RenderStatusSucceeded  = "succeeded"
	RenderStatusFailed     = "failed"
	RenderStatusTranscribe = "transcribing"
)

// WebhookEvent is the completion callback body. It is a Render plus the
// metadata the submit attached.
type WebhookEvent struct {
	Id           string `json:"id"`
	Status       string `json:"status"`
	Url          string `json:"url"`
	ErrorMessage string `json:"error_message"`
	Metadata     string `json:"metadata"`
}

// Metadata is the correlation envelope round-tripped through the renderer.
type Metadata struct {
	RequestId string `json:"request_id"`
	UserId    int    `json:"user_id"`
}

func (m *Metadata) Encode() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func (e *WebhookEvent) DecodeMetadata() (*Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
