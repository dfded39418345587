package template

import (
	"fmt"

	"github.com/reelforge/reelforge/pipeline/scene"
	"github.com/reelforge/reelforge/pipeline/validation"
)

// Renderer contract: fixed output container and portrait short-form canvas.
const (
	RequiredOutputFormat = "mp4"
	RequiredWidth        = 1080
	RequiredHeight       = 1920
)

const (
	ElementTypeVideo       = "video"
	ElementTypeAudio       = "audio"
	ElementTypeText        = "text"
	ElementTypeComposition = "composition"
)

// Element is one typed entry of the renderer template. Composition elements
// recursively contain further elements.
type Element struct {
	Type        string    `json:"type"`
	Track       int       `json:"track,omitempty"`
	Duration    float64   `json:"duration,omitempty"`
	Source      string    `json:"source,omitempty"`
	TrimStart   *float64  `json:"trim_start,omitempty"`
	TrimDuration *float64 `json:"trim_duration,omitempty"`
	Text        string    `json:"text,omitempty"`
	YAlignment  string    `json:"y_alignment,omitempty"`
	VoiceId     string    `json:"voice_id,omitempty"`
	Elements    []Element `json:"elements,omitempty"`
}

// RenderTemplate is the payload handed to the external renderer.
type RenderTemplate struct {
	OutputFormat string    `json:"output_format"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Elements     []Element `json:"elements"`
}

// Build turns a converged scene plan into the render template: one
// composition per scene holding the clip video, a TTS audio element carrying
// the narration, and an optional caption text element.
func Build(plan *scene.Plan, clips []scene.Clip, captions *validation.CaptionConfig, voiceId string) (*RenderTemplate, error) {
	tmpl := &RenderTemplate{
		OutputFormat: RequiredOutputFormat,
		Width:        RequiredWidth,
		Height:       RequiredHeight,
		Elements:     make([]Element, 0, len(plan.Scenes)),
	}

	for i := range plan.Scenes {
		s := &plan.Scenes[i]
		clip, ok := scene.FindClip(clips, s.ClipId)
		if !ok {
			return nil, fmt.Errorf("scene %d references unknown clip %q", s.Index, s.ClipId)
		}

		duration, resolved := scene.ResolveClipDuration(s, clips)
		if !resolved {
			duration = scene.EstimateNarrationDuration(s.Narration) / scene.SafetyMargin
		}

		composition := Element{
			Type:     ElementTypeComposition,
			Track:    1,
			Duration: duration,
			Elements: []Element{
				{
					Type:         ElementTypeVideo,
					Track:        1,
					Source:       clip.Url,
					TrimStart:    s.TrimStart,
					TrimDuration: s.TrimDuration,
				},
				{
					Type:    ElementTypeAudio,
					Track:   2,
					Text:    s.Narration,
					VoiceId: voiceId,
				},
			},
		}

		if captions != nil && captions.Enabled {
			composition.Elements = append(composition.Elements, Element{
				Type:       ElementTypeText,
				Track:      3,
				Text:       s.Narration,
				YAlignment: captionAlignment(captions.Placement),
			})
		}

		tmpl.Elements = append(tmpl.Elements, composition)
	}

	return tmpl, nil
}

func captionAlignment(placement string) string {
	switch placement {
	case "top":
		return "0%"
	case "center":
		return "50%"
	default:
		return "85%"
	}
}
