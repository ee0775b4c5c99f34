package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"shortscript/internal/config"
	"shortscript/internal/model"
	"shortscript/internal/repository"
	"shortscript/pkg/idgen"
	"shortscript/pkg/scriptutil"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	maxKeywords      = 8
	listScriptsLimit = 100
	chargeRetries    = 3
)

var (
	ErrTopicRequired    = errors.New("topic 不能为空")
	ErrInvalidMediaKind = errors.New("不支持的素材类型")
	ErrInvalidMedia     = errors.New("素材数据格式错误")
)

type ScriptService struct {
	db         *gorm.DB
	cfg        *config.Config
	ledger     *LedgerService
	scriptRepo *repository.ScriptRepository
	outboxRepo *repository.OutboxRepository
}

func NewScriptService(db *gorm.DB, ledger *LedgerService, cfg *config.Config) *ScriptService {
	return &ScriptService{
		db:         db,
		cfg:        cfg,
		ledger:     ledger,
		scriptRepo: repository.NewScriptRepository(db),
		outboxRepo: repository.NewOutboxRepository(db),
	}
}

type CreateScriptRequest struct {
	Topic    string
	Content  string
	Duration interface{} // "30s" / "3m" / 3
}

// Create 记录一次脚本生成并扣除积分
//
// 扣积分、写流水、创建脚本在同一个事务里完成；乐观锁冲突时整体重试
func (s *ScriptService) Create(ctx context.Context, userID string, req *CreateScriptRequest) (*model.Script, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		return nil, ErrTopicRequired
	}

	source := req.Content
	if strings.TrimSpace(source) == "" {
		source = topic
	}
	keywords, err := json.Marshal(scriptutil.ExtractKeywords(source, maxKeywords))
	if err != nil {
		return nil, err
	}

	cost := s.cfg.Business.ScriptCost
	script := &model.Script{
		ID:              idgen.GenerateScriptID(),
		UserID:          userID,
		Topic:           topic,
		Content:         req.Content,
		DurationMinutes: scriptutil.ParseDurationMinutes(req.Duration),
		Keywords:        datatypes.JSON(keywords),
		CreditsCharged:  cost,
		Status:          model.ScriptStatusProcessing,
	}

	for attempt := 1; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if cost > 0 {
				metadata := map[string]interface{}{
					"scriptId": script.ID,
					"topic":    topic,
				}
				if _, err := s.ledger.Charge(ctx, tx, userID, cost, fmt.Sprintf("Script generation - %s", topic), metadata); err != nil {
					return err
				}
			}
			return s.scriptRepo.Create(ctx, tx, script)
		})
		if !errors.Is(err, repository.ErrOptimisticLock) || attempt >= chargeRetries {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("创建脚本失败: %w", err)
	}

	log.Printf("[Script] 创建脚本: scriptID=%s, userID=%s, cost=%d", script.ID, userID, cost)
	return script, nil
}

func (s *ScriptService) List(ctx context.Context, userID string) ([]*model.Script, error) {
	return s.scriptRepo.ListByUserID(ctx, userID, listScriptsLimit)
}

func (s *ScriptService) Get(ctx context.Context, userID, scriptID string) (*model.Script, error) {
	return s.scriptRepo.GetByIDForUser(ctx, scriptID, userID)
}

// MediaCallback n8n 回调的素材
type MediaCallback struct {
	ScriptID string
	Kind     string          // images / videos / audio
	Results  json.RawMessage // images / videos 的搜索结果数组
	AudioURL string
}

// ApplyMedia 保存 n8n 回调的素材，图片和视频都到齐后脚本进入 READY
func (s *ScriptService) ApplyMedia(ctx context.Context, cb *MediaCallback) (*model.Script, error) {
	fields, err := mediaFields(cb)
	if err != nil {
		return nil, err
	}

	var script *model.Script
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.scriptRepo.GetByID(ctx, tx, cb.ScriptID); err != nil {
			return err
		}
		if err := s.scriptRepo.UpdateFields(ctx, tx, cb.ScriptID, fields); err != nil {
			return err
		}

		current, err := s.scriptRepo.GetByID(ctx, tx, cb.ScriptID)
		if err != nil {
			return err
		}

		if current.Status == model.ScriptStatusProcessing && current.HasAllMedia() {
			if err := s.scriptRepo.UpdateStatus(ctx, tx, current.ID, model.ScriptStatusProcessing, model.ScriptStatusReady); err != nil {
				return err
			}
			current.Status = model.ScriptStatusReady

			payload := map[string]interface{}{
				"scriptId": current.ID,
				"userId":   current.UserID,
				"status":   current.Status,
			}
			if err := s.outboxRepo.Enqueue(ctx, tx, s.cfg.Kafka.Topic.ScriptEvents, model.EventScriptReady, current.UserID, payload); err != nil {
				return fmt.Errorf("写入消息失败: %w", err)
			}
		}

		script = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[Script] 收到素材回调: scriptID=%s, kind=%s, status=%s", cb.ScriptID, cb.Kind, script.Status)
	return script, nil
}

func mediaFields(cb *MediaCallback) (map[string]interface{}, error) {
	switch cb.Kind {
	case model.MediaKindImages, model.MediaKindVideos:
		raw := []byte(strings.TrimSpace(string(cb.Results)))
		if len(raw) == 0 || raw[0] != '[' || !json.Valid(raw) {
			return nil, ErrInvalidMedia
		}
		return map[string]interface{}{cb.Kind: datatypes.JSON(raw)}, nil
	case model.MediaKindAudio:
		if strings.TrimSpace(cb.AudioURL) == "" {
			return nil, ErrInvalidMedia
		}
		return map[string]interface{}{"audio_url": cb.AudioURL}, nil
	default:
		return nil, ErrInvalidMediaKind
	}
}

// ExpireStale 把超时仍未收到素材的脚本标记为失败并退还积分，返回处理数量
func (s *ScriptService) ExpireStale(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	scripts, err := s.scriptRepo.GetStaleProcessing(ctx, time.Now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, script := range scripts {
		if err := s.expire(ctx, script); err != nil {
			log.Printf("[Script] 处理超时脚本失败: scriptID=%s, err=%v", script.ID, err)
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *ScriptService) expire(ctx context.Context, script *model.Script) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.scriptRepo.UpdateStatus(ctx, tx, script.ID, model.ScriptStatusProcessing, model.ScriptStatusFailed); err != nil {
			return err
		}

		if script.CreditsCharged > 0 {
			metadata := map[string]interface{}{
				"scriptId": script.ID,
				"reason":   "media_timeout",
			}
			if _, err := s.ledger.Refund(ctx, tx, script.UserID, script.CreditsCharged, "Refund - script generation timed out", metadata); err != nil {
				return err
			}
		}

		payload := map[string]interface{}{
			"scriptId": script.ID,
			"userId":   script.UserID,
			"status":   model.ScriptStatusFailed,
		}
		return s.outboxRepo.Enqueue(ctx, tx, s.cfg.Kafka.Topic.ScriptEvents, model.EventScriptFailed, script.UserID, payload)
	})
}
