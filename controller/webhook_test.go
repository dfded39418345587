package controller

import (
	"testing"

	"github.com/reelforge/reelforge/model"
	"github.com/reelforge/reelforge/pipeline/creatomate"
)

func TestAuthorizeRenderCallback(t *testing.T) {
	request := &model.GenerationRequest{
		Id:       "req-1",
		UserId:   7,
		RenderId: "render-1",
		Status:   model.RequestStatusSubmitted,
	}

	tests := []struct {
		name    string
		event   creatomate.WebhookEvent
		meta    creatomate.Metadata
		wantErr bool
	}{
		{
			name:  "matching correlation",
			event: creatomate.WebhookEvent{Id: "render-1"},
			meta:  creatomate.Metadata{RequestId: "req-1", UserId: 7},
		},
		{
			name:    "wrong request id",
			event:   creatomate.WebhookEvent{Id: "render-1"},
			meta:    creatomate.Metadata{RequestId: "req-2", UserId: 7},
			wantErr: true,
		},
		{
			name:    "wrong user",
			event:   creatomate.WebhookEvent{Id: "render-1"},
			meta:    creatomate.Metadata{RequestId: "req-1", UserId: 8},
			wantErr: true,
		},
		{
			name:    "render id is not the submitted one",
			event:   creatomate.WebhookEvent{Id: "render-2"},
			meta:    creatomate.Metadata{RequestId: "req-1", UserId: 7},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authorizeRenderCallback(&tt.event, &tt.meta, request)
			if (err != nil) != tt.wantErr {
				t.Errorf("authorizeRenderCallback() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWebhookMetadataRoundTrip(t *testing.T) {
	meta := &creatomate.Metadata{RequestId: "req-1", UserId: 7}
	event := creatomate.WebhookEvent{Metadata: meta.Encode()}
	decoded, err := event.DecodeMetadata()
	if err != nil {
		t.Fatalf("DecodeMetadata() error = %v", err)
	}
	if decoded.RequestId != "req-1" || decoded.UserId != 7 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWebhookInvalidMetadata(t *testing.T) {
	event := creatomate.WebhookEvent{Metadata: "not json"}
	if _, err := event.DecodeMetadata(); err == nil {
		t.Error("DecodeMetadata() expected error for malformed metadata")
	}
}
