package template

import (
	"testing"

	"github.com/reelforge/reelforge/pipeline/scene"
	"github.com/reelforge/reelforge/pipeline/validation"
)

var buildClips = []scene.Clip{
	{Id: "c1", Title: "City", Url: "https://cdn.example.com/c1.mp4", Duration: 8},
}

func buildPlan() *scene.Plan {
	return &scene.Plan{Scenes: []scene.Scene{
		{Index: 0, Narration: "first scene narration", ClipId: "c1"},
		{Index: 1, Narration: "second scene narration", ClipId: "c1"},
	}}
}

func TestBuildCanvasAndFormat(t *testing.T) {
	tmpl, err := Build(buildPlan(), buildClips, nil, "voice-1")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if tmpl.OutputFormat != "mp4" {
		t.Errorf("OutputFormat = %q, want mp4", tmpl.OutputFormat)
	}
	if tmpl.Width != 1080 || tmpl.Height != 1920 {
		t.Errorf("canvas = %dx%d, want 1080x1920", tmpl.Width, tmpl.Height)
	}
	if len(tmpl.Elements) != 2 {
		t.Fatalf("len(Elements) = %d, want one composition per scene", len(tmpl.Elements))
	}
}

func TestBuildSceneComposition(t *testing.T) {
	tmpl, err := Build(buildPlan(), buildClips, nil, "voice-1")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	composition := tmpl.Elements[0]
	if composition.Type != ElementTypeComposition {
		t.Errorf("Type = %q, want composition", composition.Type)
	}
	if composition.Duration != 8 {
		t.Errorf("Duration = %v, want clip duration 8", composition.Duration)
	}
	if len(composition.Elements) != 2 {
		t.Fatalf("len(composition.Elements) = %d, want video+audio", len(composition.Elements))
	}
	video := composition.Elements[0]
	if video.Type != ElementTypeVideo || video.Source != "https://cdn.example.com/c1.mp4" {
		t.Errorf("video element = %+v", video)
	}
	audio := composition.Elements[1]
	if audio.Type != ElementTypeAudio || audio.Text != "first scene narration" || audio.VoiceId != "voice-1" {
		t.Errorf("audio element = %+v", audio)
	}
}

func TestBuildCaptions(t *testing.T) {
	tests := []struct {
		placement string
		want      string
	}{
		{"top", "0%"},
		{"center", "50%"},
		{"bottom", "85%"},
	}
	for _, tt := range tests {
		t.Run(tt.placement, func(t *testing.T) {
			captions := &validation.CaptionConfig{Enabled: true, Placement: tt.placement}
			tmpl, err := Build(buildPlan(), buildClips, captions, "")
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			composition := tmpl.Elements[0]
			if len(composition.Elements) != 3 {
				t.Fatalf("len(composition.Elements) = %d, want video+audio+caption", len(composition.Elements))
			}
			caption := composition.Elements[2]
			if caption.Type != ElementTypeText || caption.YAlignment != tt.want {
				t.Errorf("caption element = %+v, want YAlignment %s", caption, tt.want)
			}
		})
	}
}

func TestBuildCaptionsDisabled(t *testing.T) {
	captions := &validation.CaptionConfig{Enabled: false, Placement: "bottom"}
	tmpl, err := Build(buildPlan(), buildClips, captions, "")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(tmpl.Elements[0].Elements) != 2 {
		t.Error("disabled captions must not add a text element")
	}
}

func TestBuildUnknownClip(t *testing.T) {
	plan := &scene.Plan{Scenes: []scene.Scene{{Index: 0, Narration: "n", ClipId: "missing"}}}
	if _, err := Build(plan, buildClips, nil, ""); err == nil {
		t.Error("Build() expected error for unknown clip reference")
	}
}

func TestValidateStructure(t *testing.T) {
	valid := func() *RenderTemplate {
		return &RenderTemplate{
			OutputFormat: "mp4",
			Width:        1080,
			Height:       1920,
			Elements:     []Element{},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*RenderTemplate) *RenderTemplate
		wantErr bool
	}{
		{"valid with empty elements", func(tm *RenderTemplate) *RenderTemplate { return tm }, false},
		{"nil template", func(tm *RenderTemplate) *RenderTemplate { return nil }, true},
		{"wrong format", func(tm *RenderTemplate) *RenderTemplate { tm.OutputFormat = "webm"; return tm }, true},
		{"wrong width", func(tm *RenderTemplate) *RenderTemplate { tm.Width = 1920; return tm }, true},
		{"wrong height", func(tm *RenderTemplate) *RenderTemplate { tm.Height = 1080; return tm }, true},
		{"nil elements", func(tm *RenderTemplate) *RenderTemplate { tm.Elements = nil; return tm }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStructure(tt.mutate(valid()))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStructure() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
