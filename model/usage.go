package model

import (
	"context"
	"fmt"

	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/common/helper"
	"github.com/reelforge/reelforge/common/logger"
)

const (
	UsageTypeUnknown = iota
	UsageTypeTokens
	UsageTypeRender
	UsageTypeSystem
)

// UsageLog is an append-only usage record: one row per LLM call batch or per
// finished render.
type UsageLog struct {
	Id               int    `json:"id"`
	RequestId        string `json:"request_id" gorm:"index;default:''"`
	UserId           int    `json:"user_id" gorm:"index"`
	CreatedAt        int64  `json:"created_at" gorm:"bigint;index:idx_created_at_type"`
	Type             int    `json:"type" gorm:"index:idx_created_at_type"`
	Content          string `json:"content"`
	Username         string `json:"username" gorm:"index;default:''"`
	ModelName        string `json:"model_name" gorm:"index;default:''"`
	PromptTokens     int    `json:"prompt_tokens" gorm:"default:0"`
	CompletionTokens int    `json:"completion_tokens" gorm:"default:0"`
	Renders          int    `json:"renders" gorm:"default:0"`
}

func RecordUsageLog(ctx context.Context, userId int, usageType int, requestId string, modelName string, promptTokens int, completionTokens int, renders int, content string) {
	logger.Info(ctx, fmt.Sprintf("record usage log: userId=%d, type=%d, requestId=%s, modelName=%s, promptTokens=%d, completionTokens=%d, renders=%d",
		userId, usageType, requestId, modelName, promptTokens, completionTokens, renders))
	if !config.LogConsumeEnabled {
		return
	}
	usageLog := &UsageLog{
		UserId:           userId,
		Username:         GetUsernameById(userId),
		CreatedAt:        helper.GetTimestamp(),
		Type:             usageType,
		RequestId:        requestId,
		ModelName:        modelName,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		Renders:          renders,
		Content:          content,
	}
	err := DB.WithContext(ctx).Create(usageLog).Error
	if err != nil {
		logger.Error(ctx, "failed to record usage log: "+err.Error())
	}
}

func GetUserUsageAndCount(userId int, usageType int, startTimestamp int64, endTimestamp int64, page int, pageSize int) (logs []*UsageLog, total int64, err error) {
	tx := DB.Model(&UsageLog{}).Where("user_id = ?", userId)
	if usageType != UsageTypeUnknown {
		tx = tx.Where("type = ?", usageType)
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
	err = tx.Order("created_at desc").Limit(pageSize).Offset(offset).Find(&logs).Error
	return logs, total, err
}

type UsageStat struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	Renders          int64 `json:"renders"`
}

func GetUserUsageStat(userId int, startTimestamp int64, endTimestamp int64) (stat UsageStat, err error) {
	tx := DB.Model(&UsageLog{}).Where("user_id = ?", userId)
	if startTimestamp != 0 {
		tx = tx.Where("created_at >= ?", startTimestamp)
	}
	if endTimestamp != 0 {
		tx = tx.Where("created_at <= ?", endTimestamp)
	}
	err = tx.Select("COALESCE(SUM(prompt_tokens),0) as prompt_tokens, COALESCE(SUM(completion_tokens),0) as completion_tokens, COALESCE(SUM(renders),0) as renders").
		Scan(&stat).Error
	return stat, err
}
