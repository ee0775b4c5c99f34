package repository

import (
	"context"
	"errors"

	"shortscript/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx == nil {
		return r.db
	}
	return tx
}

func (r *UserRepository) GetByID(ctx context.Context, tx *gorm.DB, userID string) (*model.User, error) {
	var user model.User
	err := r.conn(tx).WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateIfAbsent 插入用户，主键冲突时什么都不做
// 返回值 created 表示本次是否真正插入了新行，并发首登时只有一个请求会得到 true
func (r *UserRepository) CreateIfAbsent(ctx context.Context, tx *gorm.DB, user *model.User) (bool, error) {
	result := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).
		Create(user)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Deduct 扣减积分并累加已用积分，version 不匹配或余额不足时不更新
func (r *UserRepository) Deduct(ctx context.Context, tx *gorm.DB, userID string, amount int64, version int) error {
	db := r.conn(tx)
	result := db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ? AND credits >= ? AND version = ?", userID, amount, version).
		Updates(map[string]interface{}{
			"credits":      gorm.Expr("credits - ?", amount),
			"credits_used": gorm.Expr("credits_used + ?", amount),
			"version":      gorm.Expr("version + 1"),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		user, err := r.GetByID(ctx, db, userID)
		if err != nil {
			return err
		}
		if user.Credits < amount {
			return ErrInsufficientCredits
		}
		return ErrOptimisticLock
	}

	return nil
}

// Increase 增加可用积分
// purchased 为 true 时同时累加 credits_purchased（购买、赠送），退还积分时为 false
func (r *UserRepository) Increase(ctx context.Context, tx *gorm.DB, userID string, amount int64, purchased bool) error {
	updates := map[string]interface{}{
		"credits": gorm.Expr("credits + ?", amount),
		"version": gorm.Expr("version + 1"),
	}
	if purchased {
		updates["credits_purchased"] = gorm.Expr("credits_purchased + ?", amount)
	}

	result := r.conn(tx).WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
