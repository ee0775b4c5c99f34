package model

import (
	"time"
)

// User 用户账户表
// 主键直接使用身份提供方（Firebase）的 uid，首次登录时自动创建
//
// credits / credits_purchased / credits_used 是三个独立计数器，
// 不保证 credits == credits_purchased - credits_used
type User struct {
	ID               string    `gorm:"primaryKey;type:varchar(128)" json:"id"`
	Email            string    `gorm:"type:varchar(255);not null;default:''" json:"email"`
	Credits          int64     `gorm:"not null;default:0" json:"credits"`          // 当前可用积分
	CreditsPurchased int64     `gorm:"not null;default:0" json:"creditsPurchased"` // 累计获得积分（只增不减）
	CreditsUsed      int64     `gorm:"not null;default:0" json:"creditsUsed"`      // 累计消耗积分（只增不减）
	Version          int       `gorm:"not null;default:0" json:"-"`                // 乐观锁版本号
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}
