package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"shortscript/internal/config"
	"shortscript/internal/infrastructure/lock"
	"shortscript/internal/model"
	"shortscript/internal/repository"
	"shortscript/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

// LedgerService 积分账本：开户、余额、流水、扣减和退还
type LedgerService struct {
	db              *gorm.DB
	redisClient     *redis.Client
	cfg             *config.Config
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
	outboxRepo      *repository.OutboxRepository
}

// NewLedgerService redisClient 可以为 nil，此时开户只依赖数据库主键冲突去重
func NewLedgerService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *LedgerService {
	return &LedgerService{
		db:              db,
		redisClient:     redisClient,
		cfg:             cfg,
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
		outboxRepo:      repository.NewOutboxRepository(db),
	}
}

// Balance 余额视图，字段总是存在
type Balance struct {
	Credits          int64 `json:"credits"`
	CreditsPurchased int64 `json:"creditsPurchased"`
	CreditsUsed      int64 `json:"creditsUsed"`
}

type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"hasMore"`
	Total   int64 `json:"total"`
}

type HistoryPage struct {
	Transactions []*model.CreditTransaction `json:"transactions"`
	Pagination   Pagination                 `json:"pagination"`
}

// EnsureUserExists 返回用户，不存在时开户并赠送初始积分
//
// 已存在的用户原样返回，即使 email 与库中不同也不更新
func (s *LedgerService) EnsureUserExists(ctx context.Context, userID, email string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	if s.redisClient == nil {
		return s.provision(ctx, userID, email)
	}

	provisionLock := lock.NewProvisionLock(s.redisClient, userID, uuid.NewString())
	err = provisionLock.WithLock(ctx, 50*time.Millisecond, 40, func() error {
		var provisionErr error
		user, provisionErr = s.provision(ctx, userID, email)
		return provisionErr
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// provision 在一个事务里创建用户、写入欢迎积分流水和 outbox 消息
func (s *LedgerService) provision(ctx context.Context, userID, email string) (*model.User, error) {
	startingCredits := s.cfg.Business.StartingCredits

	var user *model.User
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		newUser := &model.User{
			ID:               userID,
			Email:            email,
			Credits:          startingCredits,
			CreditsPurchased: startingCredits,
			CreditsUsed:      0,
		}

		inserted, err := s.userRepo.CreateIfAbsent(ctx, tx, newUser)
		if err != nil {
			return fmt.Errorf("创建用户失败: %w", err)
		}
		if !inserted {
			// 并发请求已经开户，直接读取
			user, err = s.userRepo.GetByID(ctx, tx, userID)
			return err
		}

		if _, err := s.appendTransaction(ctx, tx, userID, startingCredits, model.TransactionTypeBonus,
			model.WelcomeBonusDescription, startingCredits,
			map[string]interface{}{"reason": "first_login"}, model.EventCreditBonus); err != nil {
			return err
		}

		user = newUser
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		log.Printf("[Ledger] 新用户开户: userID=%s, credits=%d", userID, startingCredits)
	}
	return user, nil
}

// GetBalance 查询余额，用户不存在时返回全 0
func (s *LedgerService) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return &Balance{}, nil
		}
		return nil, err
	}
	return &Balance{
		Credits:          user.Credits,
		CreditsPurchased: user.CreditsPurchased,
		CreditsUsed:      user.CreditsUsed,
	}, nil
}

// NormalizePage 修正分页参数：page 从 1 开始，limit 在 [1, MaxHistoryLimit] 之间
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return page, limit
}

// History 分页查询流水，total 为真实总条数
// 偏移量超出总条数（包括 page 大到溢出）时返回空页
func (s *LedgerService) History(ctx context.Context, userID string, page, limit int) (*HistoryPage, error) {
	page, limit = NormalizePage(page, limit)

	total, err := s.transactionRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("查询流水失败: %w", err)
	}

	result := &HistoryPage{
		Transactions: make([]*model.CreditTransaction, 0),
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	}

	offset, ok := pageOffset(page, limit)
	if !ok || offset >= total {
		return result, nil
	}

	transactions, err := s.transactionRepo.ListByUserID(ctx, userID, int(offset), limit)
	if err != nil {
		return nil, fmt.Errorf("查询流水失败: %w", err)
	}

	result.Transactions = transactions
	result.Pagination.HasMore = offset+int64(len(transactions)) < total
	return result, nil
}

// pageOffset 计算 (page-1)*limit，溢出时返回 false
func pageOffset(page, limit int) (int64, bool) {
	if int64(page-1) > math.MaxInt64/int64(limit) {
		return 0, false
	}
	return int64(page-1) * int64(limit), true
}

// Charge 在调用方的事务中扣减积分并记录 USAGE 流水
//
// 使用乐观锁，冲突时返回 repository.ErrOptimisticLock，由调用方决定是否重试整个事务
func (s *LedgerService) Charge(ctx context.Context, tx *gorm.DB, userID string, amount int64, description string, metadata map[string]interface{}) (*model.CreditTransaction, error) {
	if amount <= 0 {
		return nil, errors.New("扣减积分必须大于0")
	}

	user, err := s.userRepo.GetByID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if user.Credits < amount {
		return nil, repository.ErrInsufficientCredits
	}

	if err := s.userRepo.Deduct(ctx, tx, userID, amount, user.Version); err != nil {
		return nil, err
	}

	return s.appendTransaction(ctx, tx, userID, -amount, model.TransactionTypeUsage, description,
		user.Credits-amount, metadata, model.EventCreditUsage)
}

// Refund 在调用方的事务中退还积分，credits_used 保持不变
func (s *LedgerService) Refund(ctx context.Context, tx *gorm.DB, userID string, amount int64, description string, metadata map[string]interface{}) (*model.CreditTransaction, error) {
	if amount <= 0 {
		return nil, errors.New("退还积分必须大于0")
	}

	if err := s.userRepo.Increase(ctx, tx, userID, amount, false); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	return s.appendTransaction(ctx, tx, userID, amount, model.TransactionTypeRefund, description,
		user.Credits, metadata, model.EventCreditRefund)
}

func (s *LedgerService) appendTransaction(ctx context.Context, tx *gorm.DB, userID string, amount int64, transType, description string,
	balanceAfter int64, metadata map[string]interface{}, eventType string) (*model.CreditTransaction, error) {
	transaction := &model.CreditTransaction{
		ID:           idgen.GenerateTransactionID(),
		UserID:       userID,
		Amount:       amount,
		Type:         transType,
		Description:  description,
		BalanceAfter: balanceAfter,
		Metadata:     datatypes.JSONMap(metadata),
	}
	if err := s.transactionRepo.Create(ctx, tx, transaction); err != nil {
		return nil, fmt.Errorf("记录流水失败: %w", err)
	}

	payload := map[string]interface{}{
		"transactionId": transaction.ID,
		"userId":        userID,
		"amount":        amount,
		"type":          transType,
		"balanceAfter":  balanceAfter,
		"createdAt":     transaction.CreatedAt.Format(time.RFC3339),
	}
	if err := s.outboxRepo.Enqueue(ctx, tx, s.cfg.Kafka.Topic.CreditEvents, eventType, userID, payload); err != nil {
		return nil, fmt.Errorf("写入消息失败: %w", err)
	}

	return transaction, nil
}
