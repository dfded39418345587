package model

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Request status is the orchestrator's own state machine; render status is
// the renderer's later-reported outcome, meaningful only once the request is
// submitted. The two are deliberately separate columns.
const (
	RequestStatusQueued     = "queued"
	RequestStatusProcessing = "processing"
	RequestStatusSubmitted  = "submitted"
	RequestStatusFailed     = "failed"

	RenderStatusPending   = "pending"
	RenderStatusSucceeded = "succeeded"
	RenderStatusFailed    = "failed"
)

type GenerationRequest struct {
	Id     string `json:"id" gorm:"type:char(32);primaryKey"`
	UserId int    `json:"user_id" gorm:"index"`
	Status string `json:"status" gorm:"type:varchar(16);index;default:'queued'"`

	// original payload
	Prompt           string `json:"prompt" gorm:"type:text"`
	SystemPrompt     string `json:"system_prompt" gorm:"type:text"`
	SelectedClips    string `json:"selected_clips" gorm:"type:text"` // JSON array of clip references
	VoiceId          string `json:"voice_id" gorm:"default:''"`
	CaptionConfig    string `json:"caption_config" gorm:"type:text"` // JSON, optional
	OutputLanguage   string `json:"output_language" gorm:"type:varchar(8)"`
	EditorialProfile string `json:"editorial_profile" gorm:"type:text"` // JSON, optional

	// timestamps
	CreatedAt           int64 `json:"created_at" gorm:"bigint;index"`
	ProcessingStartedAt int64 `json:"processing_started_at" gorm:"bigint;default:0"`
	CompletedAt         int64 `json:"completed_at" gorm:"bigint;default:0"`

	// set iff status = failed
	ErrorMessage string `json:"error_message" gorm:"type:text;default:''"`

	// result bundle, set iff status = submitted
	ScriptId       string `json:"script_id" gorm:"type:char(32);default:''"`
	RenderId       string `json:"render_id" gorm:"index;default:''"`
	ScriptText     string `json:"script_text" gorm:"type:text;default:''"`
	RenderTemplate string `json:"render_template" gorm:"type:text;default:''"` // JSON

	// renderer-reported outcome, applied by the webhook
	RenderStatus string `json:"render_status" gorm:"type:varchar(16);default:'pending'"`
	OutputUrl    string `json:"output_url" gorm:"type:text;default:''"`
	RenderError  string `json:"render_error" gorm:"type:text;default:''"`
}

func (request *GenerationRequest) Insert(ctx context.Context) error {
	return DB.WithContext(ctx).Create(request).Error
}

func GetGenerationRequestById(id string) (*GenerationRequest, error) {
	var request GenerationRequest
	result := DB.Where("id = ?", id).First(&request)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no generation request found for id: %s", id)
		}
		return nil, result.Error
	}
	return &request, nil
}

func GetGenerationRequestByRenderId(renderId string) (*GenerationRequest, error) {
	var request GenerationRequest
	result := DB.Where("render_id = ?", renderId).First(&request)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no generation request found for render_id: %s", renderId)
		}
		return nil, result.Error
	}
	return &request, nil
}

func GetUserGenerationsAndCount(userId int, startTimestamp int64, endTimestamp int64, status string, page int, pageSize int) (requests []*GenerationRequest, total int64, err error) {
	tx := DB.Model(&GenerationRequest{}).Where("user_id = ?", userId)
	if status != "" {
		tx = tx.Where("status = ?", status)
	}
	if startTimestamp != 0 {
		tx = tx.Where("created_at >= ?", startTimestamp)
	}
	if endTimestamp != 0 {
		tx = tx.Where("created_at <= ?", endTimestamp)
	}

	err = tx.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	err = tx.Omit("render_template", "script_text").Order("created_at desc").Limit(pageSize).Offset(offset).Find(&requests).Error
	if err != nil {
		return nil, total, err
	}
	return requests, total, nil
}

// MarkProcessing stamps the processing-start time. Only a queued request may
// move to processing.
func MarkRequestProcessing(ctx context.Context, id string, startedAt int64) error {
	result := DB.WithContext(ctx).Model(&GenerationRequest{}).
		Where("id = ? AND status = ?", id, RequestStatusQueued).
		Updates(map[string]any{
			"status":                RequestStatusProcessing,
			"processing_started_at": startedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("generation request %s is not in queued state", id)
	}
	return nil
}

// MarkRequestSubmitted moves the request to its terminal success state. The
// status guard makes the first terminal writer win: if a timed-out stage's
// abandoned work races the failure path, the loser's write is a no-op.
func MarkRequestSubmitted(ctx context.Context, id string, scriptId string, renderId string, scriptText string, renderTemplate string, completedAt int64) (bool, error) {
	result := DB.WithContext(ctx).Model(&GenerationRequest{}).
		Where("id = ? AND status NOT IN ?", id, []string{RequestStatusSubmitted, RequestStatusFailed}).
		Updates(map[string]any{
			"status":          RequestStatusSubmitted,
			"script_id":       scriptId,
			"render_id":       renderId,
			"script_text":     scriptText,
			"render_template": renderTemplate,
			"completed_at":    completedAt,
			"error_message":   "",
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// MarkRequestFailed moves the request to its terminal failure state, same
// first-writer-wins guard as MarkRequestSubmitted.
func MarkRequestFailed(ctx context.Context, id string, errorMessage string, completedAt int64) (bool, error) {
	result := DB.WithContext(ctx).Model(&GenerationRequest{}).
		Where("id = ? AND status NOT IN ?", id, []string{RequestStatusSubmitted, RequestStatusFailed}).
		Updates(map[string]any{
			"status":        RequestStatusFailed,
			"error_message": errorMessage,
			"completed_at":  completedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ApplyRenderOutcome records the renderer's webhook-reported terminal status.
// Only submitted requests still pending a render outcome accept it.
func ApplyRenderOutcome(id string, renderStatus string, outputUrl string, renderError string) (bool, error) {
	result := DB.Model(&GenerationRequest{}).
		Where("id = ? AND status = ? AND render_status = ?", id, RequestStatusSubmitted, RenderStatusPending).
		Updates(map[string]any{
			"render_status": renderStatus,
			"output_url":    outputUrl,
			"render_error":  renderError,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
