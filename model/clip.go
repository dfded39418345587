package model

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Clip is one entry of the clip library. Rows originate from the TikTok
// analysis importer, so alongside the playable source they carry the stats
// the analysis endpoints expose.
type Clip struct {
	Id       string  `json:"id" gorm:"type:char(32);primaryKey"`
	UserId   int     `json:"user_id" gorm:"index"`
	Title    string  `json:"title" gorm:"index"`
	Url      string  `json:"url" gorm:"type:text"`
	Tags     string  `json:"tags" gorm:"type:text"` // JSON array of strings
	Duration float64 `json:"duration" gorm:"default:0"`

	// TikTok analysis stats
	Source         string  `json:"source" gorm:"type:varchar(16);default:'tiktok'"`
	SourceUrl      string  `json:"source_url" gorm:"type:text;default:''"`
	AuthorHandle   string  `json:"author_handle" gorm:"index;default:''"`
	Views          int64   `json:"views" gorm:"bigint;default:0"`
	Likes          int64   `json:"likes" gorm:"bigint;default:0"`
	Comments       int64   `json:"comments" gorm:"bigint;default:0"`
	Shares         int64   `json:"shares" gorm:"bigint;default:0"`
	EngagementRate float64 `json:"engagement_rate" gorm:"default:0"`

	CreatedAt int64 `json:"created_at" gorm:"bigint;index"`
}

func (clip *Clip) Insert() error {
	return DB.Create(clip).Error
}

func (clip *Clip) Update() error {
	return DB.Model(clip).Updates(clip).Error
}

func GetClipById(id string) (*Clip, error) {
	var clip Clip
	result := DB.Where("id = ?", id).First(&clip)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no clip found for id: %s", id)
		}
		return nil, result.Error
	}
	return &clip, nil
}

func GetClipsByIds(ctx context.Context, ids []string) ([]*Clip, error) {
	var clips []*Clip
	err := DB.WithContext(ctx).Where("id IN ?", ids).Find(&clips).Error
	return clips, err
}

func GetUserClipsAndCount(userId int, keyword string, page int, pageSize int) (clips []*Clip, total int64, err error) {
	tx := DB.Model(&Clip{}).Where("user_id = ?", userId)
	if keyword != "" {
		likeKeyword := "%" + keyword + "%"
		tx = tx.Where("title LIKE ? OR author_handle LIKE ?", likeKeyword, likeKeyword)
	}

	err = tx.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	err = tx.Order("created_at desc").Limit(pageSize).Offset(offset).Find(&clips).Error
	if err != nil {
		return nil, total, err
	}
	return clips, total, nil
}

func DeleteClipById(id string, userId int) error {
	if id == "" {
		return errors.New("id is empty")
	}
	result := DB.Where("id = ? AND user_id = ?", id, userId).Delete(&Clip{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no clip found for id: %s", id)
	}
	return nil
}
