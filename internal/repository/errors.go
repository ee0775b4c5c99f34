package repository

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrInsufficientCredits = errors.New("积分不足")
	ErrOptimisticLock      = errors.New("乐观锁冲突，请重试")
	ErrScriptNotFound      = errors.New("脚本不存在")
	ErrScriptStatusInvalid = errors.New("脚本状态不合法")
)
