package models

import (
	"time"
)

type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Username   string    `gorm:"not null" json:"username"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"`     // Hash
	Avatar     string    `gorm:"default:🧑‍💻" json:"avatar"` // emoji 头像
	Bio        string    `gorm:"size:200" json:"bio"`
	Verified   bool      `gorm:"default:false;not null" json:"verified"` // 未验证用户只读
	VerifyCode string    `gorm:"size:20" json:"-"`                      // 激活码
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
