package models

import (
	"time"
)

type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Title       string    `gorm:"not null" json:"title"`
	Language    string    `gorm:"size:32" json:"language"`          // go, python, rust ...
	Code        string    `gorm:"type:text;not null" json:"code"`   // 原样保存，不渲染
	Description string    `gorm:"type:text" json:"description"`     // Markdown
	Likes       int       `gorm:"not null;default:0" json:"likes"`    // 由 UserPostInteraction 派生
	Dislikes    int       `gorm:"not null;default:0" json:"dislikes"` // 同上
	Score       int       `gorm:"default:0;index" json:"score"`       // 热度，后台异步计算
	Views       int       `gorm:"default:0" json:"views"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// 非数据库字段，用于查询时填充
	FavoriteCount int `gorm:"-" json:"favorite_count"`
	CommentCount  int `gorm:"-" json:"comment_count"`
}
