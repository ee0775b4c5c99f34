package model

import (
	"time"

	"gorm.io/datatypes"
)

// ============================================================================
// 积分流水类型
// ============================================================================

const (
	TransactionTypeBonus    = "BONUS"    // 赠送（新用户欢迎积分等）
	TransactionTypePurchase = "PURCHASE" // 购买
	TransactionTypeUsage    = "USAGE"    // 消耗
	TransactionTypeRefund   = "REFUND"   // 退还
)

const WelcomeBonusDescription = "Welcome bonus - Starting credits"

// CreditTransaction 积分流水表
//
// 只追加，不修改，不删除。每条流水记录变动后的余额快照，
// metadata 的结构随流水类型变化，因此使用 JSON 存储
type CreditTransaction struct {
	ID           string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID       string            `gorm:"type:varchar(128);index;not null" json:"userId"`
	Amount       int64             `gorm:"not null" json:"amount"` // 正数入账，负数出账
	Type         string            `gorm:"type:varchar(20);not null" json:"type"`
	Description  string            `gorm:"type:varchar(512)" json:"description"`
	BalanceAfter int64             `gorm:"not null" json:"balanceAfter"`
	Metadata     datatypes.JSONMap `json:"metadata"`
	CreatedAt    time.Time         `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}
