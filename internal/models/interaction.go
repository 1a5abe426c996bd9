package models

import (
	"time"
)

// Reaction 是用户对帖子的态度，三选一
type Reaction string

const (
	ReactionNone    Reaction = ""
	ReactionLike    Reaction = "like"
	ReactionDislike Reaction = "dislike"
)

func (r Reaction) String() string {
	if r == ReactionNone {
		return "none"
	}
	return string(r)
}

// Opposite 返回相反的态度，ReactionNone 没有相反态度
func (r Reaction) Opposite() Reaction {
	switch r {
	case ReactionLike:
		return ReactionDislike
	case ReactionDislike:
		return ReactionLike
	}
	return ReactionNone
}

// Column 返回该态度对应的 posts 计数列
func (r Reaction) Column() string {
	switch r {
	case ReactionLike:
		return "likes"
	case ReactionDislike:
		return "dislikes"
	}
	return ""
}

// UserPostInteraction 每个 (user, post) 至多一行
type UserPostInteraction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_interaction_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_interaction_user_post" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Reaction  Reaction  `gorm:"type:varchar(10);not null;default:''" json:"reaction"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i UserPostInteraction) Liked() bool    { return i.Reaction == ReactionLike }
func (i UserPostInteraction) Disliked() bool { return i.Reaction == ReactionDislike }
