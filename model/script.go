package model

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Script struct {
	Id        string `json:"id" gorm:"type:char(32);primaryKey"`
	UserId    int    `json:"user_id" gorm:"index"`
	RequestId string `json:"request_id" gorm:"type:char(32);index"`
	Content   string `json:"content" gorm:"type:text"`
	Language  string `json:"language" gorm:"type:varchar(8)"`
	CreatedAt int64  `json:"created_at" gorm:"bigint"`
}

func (script *Script) Insert(ctx context.Context) error {
	return DB.WithContext(ctx).Create(script).Error
}

func GetScriptById(id string) (*Script, error) {
	var script Script
	result := DB.Where("id = ?", id).First(&script)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no script found for id: %s", id)
		}
		return nil, result.Error
	}
	return &script, nil
}

func DeleteScriptById(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("id is empty")
	}
	return DB.WithContext(ctx).Where("id = ?", id).Delete(&Script{}).Error
}
