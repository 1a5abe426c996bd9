package models

import (
	"time"
)

// Favorite 收藏 - 只有存在与否，没有其他状态
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_favorite_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_favorite_user_post" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	CreatedAt time.Time `json:"created_at"`
}
