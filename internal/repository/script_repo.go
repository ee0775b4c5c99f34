package repository

import (
	"context"
	"errors"
	"time"

	"shortscript/internal/model"

	"gorm.io/gorm"
)

type ScriptRepository struct {
	db *gorm.DB
}

func NewScriptRepository(db *gorm.DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

func (r *ScriptRepository) Create(ctx context.Context, tx *gorm.DB, script *model.Script) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(script).Error
}

func (r *ScriptRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*model.Script, error) {
	if tx == nil {
		tx = r.db
	}
	var script model.Script
	err := tx.WithContext(ctx).Where("id = ?", id).First(&script).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScriptNotFound
		}
		return nil, err
	}
	return &script, nil
}

// GetByIDForUser 只返回属于该用户的脚本，其他用户的脚本视为不存在
func (r *ScriptRepository) GetByIDForUser(ctx context.Context, id, userID string) (*model.Script, error) {
	var script model.Script
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&script).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScriptNotFound
		}
		return nil, err
	}
	return &script, nil
}

func (r *ScriptRepository) ListByUserID(ctx context.Context, userID string, limit int) ([]*model.Script, error) {
	scripts := make([]*model.Script, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&scripts).Error
	return scripts, err
}

// UpdateFields 更新素材字段，不改变状态
// MySQL 在值未变化时 RowsAffected 为 0，所以这里不根据它判断脚本是否存在
func (r *ScriptRepository) UpdateFields(ctx context.Context, tx *gorm.DB, id string, fields map[string]interface{}) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).
		Model(&model.Script{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// UpdateStatus 条件更新状态，fromStatus 不匹配时返回 ErrScriptStatusInvalid
func (r *ScriptRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, fromStatus, toStatus string) error {
	if !model.CanScriptTransitionTo(fromStatus, toStatus) {
		return ErrScriptStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Script{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrScriptStatusInvalid
	}

	return nil
}

// GetStaleProcessing 查询创建时间早于 before 且仍在等待素材的脚本
func (r *ScriptRepository) GetStaleProcessing(ctx context.Context, before time.Time, limit int) ([]*model.Script, error) {
	var scripts []*model.Script
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.ScriptStatusProcessing, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&scripts).Error
	return scripts, err
}
