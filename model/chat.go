package model

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ChatDraft is one chat-based script drafting session. Messages holds the
// whole conversation as a JSON array so a draft can be resumed.
type ChatDraft struct {
	Id        string `json:"id" gorm:"type:char(32);primaryKey"`
	UserId    int    `json:"user_id" gorm:"index"`
	Title     string `json:"title" gorm:"default:''"`
	Messages  string `json:"messages" gorm:"type:text"` // JSON array of {role, content}
	Script    string `json:"script" gorm:"type:text;default:''"`
	CreatedAt int64  `json:"created_at" gorm:"bigint;index"`
	UpdatedAt int64  `json:"updated_at" gorm:"bigint"`
}

func (draft *ChatDraft) Insert() error {
	return DB.Create(draft).Error
}

func (draft *ChatDraft) Update() error {
	return DB.Model(draft).Updates(draft).Error
}

func GetChatDraftById(id string, userId int) (*ChatDraft, error) {
	var draft ChatDraft
	result := DB.Where("id = ? AND user_id = ?", id, userId).First(&draft)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no chat draft found for id: %s", id)
		}
		return nil, result.Error
	}
	return &draft, nil
}

func GetUserChatDraftsAndCount(userId int, page int, pageSize int) (drafts []*ChatDraft, total int64, err error) {
	tx := DB.Model(&ChatDraft{}).Where("user_id = ?", userId)
	err = tx.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	err = tx.Omit("messages").Order("updated_at desc").Limit(pageSize).Offset(offset).Find(&drafts).Error
	return drafts, total, err
}
