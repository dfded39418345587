package validation

import (
	"strings"
	"testing"
)

func validBody() map[string]any {
	return map[string]any{
		"prompt": "Make a video about deep sea creatures",
		"selected_clips": []any{
			map[string]any{
				"id":    "c1",
				"title": "Anglerfish",
				"url":   "https://cdn.example.com/c1.mp4",
				"tags":  []any{"ocean", "fish"},
			},
		},
		"output_language": "en",
	}
}

func findError(errs []FieldError, field string, code string) bool {
	for _, e := range errs {
		if e.Field == field && e.Code == code {
			return true
		}
	}
	return false
}

func TestValidateAcceptsMinimalBody(t *testing.T) {
	payload, errs := Validate(validBody())
	if len(errs) != 0 {
		t.Fatalf("Validate() errors = %v, want none", errs)
	}
	if payload.Prompt != "Make a video about deep sea creatures" {
		t.Errorf("Prompt = %q", payload.Prompt)
	}
	if len(payload.SelectedClips) != 1 || payload.SelectedClips[0].Id != "c1" {
		t.Errorf("SelectedClips = %+v", payload.SelectedClips)
	}
	if payload.OutputLanguage != "en" {
		t.Errorf("OutputLanguage = %q", payload.OutputLanguage)
	}
}

func TestValidateAccumulatesAllErrors(t *testing.T) {
	payload, errs := Validate(map[string]any{})
	if payload != nil {
		t.Error("payload should be nil on validation failure")
	}
	for _, want := range []string{"prompt", "selected_clips", "output_language"} {
		if !findError(errs, want, CodeRequiredFieldMissing) {
			t.Errorf("missing REQUIRED_FIELD_MISSING for %s in %v", want, errs)
		}
	}
}

func TestValidatePromptRules(t *testing.T) {
	tests := []struct {
		name     string
		prompt   any
		wantCode string
	}{
		{"wrong type", 42, CodeInvalidType},
		{"blank", "   ", CodeEmptyValue},
		{"too long", strings.Repeat("a", MaxPromptLength+1), CodeValueTooLong},
		{"too many runes", strings.Repeat("市", MaxPromptLength+1), CodeValueTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := validBody()
			body["prompt"] = tt.prompt
			_, errs := Validate(body)
			if !findError(errs, "prompt", tt.wantCode) {
				t.Errorf("want %s for prompt, got %v", tt.wantCode, errs)
			}
		})
	}
}

func TestValidatePromptLengthCountsRunes(t *testing.T) {
	// 700 CJK characters are 2100 bytes but well under the character cap
	body := validBody()
	body["prompt"] = strings.Repeat("市", 700)
	if _, errs := Validate(body); len(errs) != 0 {
		t.Errorf("Validate() errors = %v, want multibyte prompt accepted", errs)
	}
}

func TestValidatePromptIsTrimmed(t *testing.T) {
	body := validBody()
	body["prompt"] = "  padded prompt  "
	payload, errs := Validate(body)
	if len(errs) != 0 {
		t.Fatalf("Validate() errors = %v", errs)
	}
	if payload.Prompt != "padded prompt" {
		t.Errorf("Prompt = %q, want trimmed", payload.Prompt)
	}
}

func TestValidateClipCardinality(t *testing.T) {
	body := validBody()
	body["selected_clips"] = []any{}
	_, errs := Validate(body)
	if !findError(errs, "selected_clips", CodeTooFewItems) {
		t.Errorf("want TOO_FEW_ITEMS, got %v", errs)
	}

	clips := make([]any, 0, MaxClips+1)
	for i := 0; i <= MaxClips; i++ {
		clips = append(clips, map[string]any{
			"id":    "c",
			"title": "t",
			"url":   "https://example.com/v.mp4",
			"tags":  []any{},
		})
	}
	body = validBody()
	body["selected_clips"] = clips
	_, errs = Validate(body)
	if !findError(errs, "selected_clips", CodeTooManyItems) {
		t.Errorf("want TOO_MANY_ITEMS, got %v", errs)
	}
}

func TestValidateClipEntriesReportPerIndex(t *testing.T) {
	body := validBody()
	body["selected_clips"] = []any{
		map[string]any{"id": "c1", "title": "ok", "url": "https://example.com/1.mp4", "tags": []any{}},
		map[string]any{"id": "c2", "title": "  ", "url": "https://example.com/2.mp4", "tags": []any{}},
		"not an object",
	}
	_, errs := Validate(body)
	if !findError(errs, "selected_clips[1]", CodeInvalidItem) {
		t.Errorf("want INVALID_ITEM at index 1, got %v", errs)
	}
	if !findError(errs, "selected_clips[2]", CodeInvalidItem) {
		t.Errorf("want INVALID_ITEM at index 2, got %v", errs)
	}
	if findError(errs, "selected_clips[0]", CodeInvalidItem) {
		t.Errorf("index 0 is valid, got %v", errs)
	}
}

func TestValidateLanguage(t *testing.T) {
	body := validBody()
	body["output_language"] = "tlh"
	_, errs := Validate(body)
	if !findError(errs, "output_language", CodeUnsupportedLanguage) {
		t.Errorf("want UNSUPPORTED_LANGUAGE, got %v", errs)
	}
}

func TestValidateCaptionConfig(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		body := validBody()
		body["caption_config"] = map[string]any{"enabled": true, "placement": "bottom"}
		payload, errs := Validate(body)
		if len(errs) != 0 {
			t.Fatalf("Validate() errors = %v", errs)
		}
		if payload.CaptionConfig == nil || !payload.CaptionConfig.Enabled || payload.CaptionConfig.Placement != "bottom" {
			t.Errorf("CaptionConfig = %+v", payload.CaptionConfig)
		}
	})
	t.Run("bad placement", func(t *testing.T) {
		body := validBody()
		body["caption_config"] = map[string]any{"enabled": true, "placement": "sideways"}
		_, errs := Validate(body)
		if !findError(errs, "caption_config.placement", CodeInvalidValue) {
			t.Errorf("want INVALID_VALUE for placement, got %v", errs)
		}
	})
}

func TestValidateEditorialProfile(t *testing.T) {
	body := validBody()
	body["editorial_profile"] = map[string]any{
		"persona_description": "science explainer",
		"tone_of_voice":       "curious",
		"audience":            "teens",
		"style_notes":         "fast cuts",
	}
	payload, errs := Validate(body)
	if len(errs) != 0 {
		t.Fatalf("Validate() errors = %v", errs)
	}
	if payload.EditorialProfile == nil || payload.EditorialProfile.ToneOfVoice != "curious" {
		t.Errorf("EditorialProfile = %+v", payload.EditorialProfile)
	}

	body["editorial_profile"] = map[string]any{"persona_description": "only this"}
	_, errs = Validate(body)
	if !findError(errs, "editorial_profile", CodeInvalidValue) {
		t.Errorf("want INVALID_VALUE for incomplete profile, got %v", errs)
	}
}
