package model

import "context"

// TrainingSample is a fire-and-forget capture of one finished pipeline run:
// the prompt, the script it produced and the template that was submitted.
// The full JSON artifact is mirrored to object storage under ArtifactKey.
type TrainingSample struct {
	Id          string `json:"id" gorm:"type:char(32);primaryKey"`
	RequestId   string `json:"request_id" gorm:"type:char(32);index"`
	UserId      int    `json:"user_id" gorm:"index"`
	Prompt      string `json:"prompt" gorm:"type:text"`
	Script      string `json:"script" gorm:"type:text"`
	Template    string `json:"template" gorm:"type:text"` // JSON
	ArtifactKey string `json:"artifact_key" gorm:"type:text;default:''"`
	CreatedAt   int64  `json:"created_at" gorm:"bigint"`
}

func (sample *TrainingSample) Insert(ctx context.Context) error {
	return DB.WithContext(ctx).Create(sample).Error
}
