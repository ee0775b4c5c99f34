package repository

import (
	"context"

	"shortscript/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create 追加一条流水，流水表没有更新和删除接口
func (r *TransactionRepository) Create(ctx context.Context, tx *gorm.DB, trans *model.CreditTransaction) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(trans).Error
}

func (r *TransactionRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.CreditTransaction{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListByUserID 按创建时间倒序查询，从 offset 开始最多返回 limit 条
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID string, offset, limit int) ([]*model.CreditTransaction, error) {
	transactions := make([]*model.CreditTransaction, 0, limit)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}
