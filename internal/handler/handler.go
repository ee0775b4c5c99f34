package handler

import (
	"time"

	"shortscript/internal/audio"
	"shortscript/internal/auth"
	"shortscript/internal/config"
	"shortscript/internal/service"
	"shortscript/internal/webhook"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler 统一处理器，包含所有服务依赖
type Handler struct {
	ledgerService   *service.LedgerService
	scriptService   *service.ScriptService
	gate            *auth.Gate
	webhookVerifier *webhook.Verifier
	audioProxy      *audio.Proxy
}

// NewHandler 创建处理器实例
// verifier 由调用方注入，测试时可以替换成假的实现
func NewHandler(db *gorm.DB, rdb *redis.Client, verifier auth.TokenVerifier, cfg *config.Config) *Handler {
	ledgerService := service.NewLedgerService(db, rdb, cfg)

	return &Handler{
		ledgerService: ledgerService,
		scriptService: service.NewScriptService(db, ledgerService, cfg),
		gate:          auth.NewGate(verifier, ledgerService),
		webhookVerifier: webhook.NewVerifier(webhook.Config{
			Secret:  cfg.Webhook.Secret,
			DevMode: cfg.Server.IsDevelopment(),
		}),
		audioProxy: audio.NewProxy(audio.Config{
			TrustedOrigin: cfg.AudioProxy.TrustedOrigin,
			Timeout:       time.Duration(cfg.AudioProxy.TimeoutSeconds) * time.Second,
			MaxBytes:      cfg.AudioProxy.MaxBytes,
		}, nil),
	}
}
