package handler

import (
	"net/http"

	"shortscript/internal/config"

	"github.com/gin-gonic/gin"
)

// 音频代理由页面上的 <audio> 元素直接请求，跨域策略对所有来源开放
const audioProxyPath = "/api/audio/proxy"

// SetupRouter 配置路由
func SetupRouter(h *Handler, cfg *config.Config) *gin.Engine {
	if cfg.Server.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware(cfg.Server.AllowedOrigins, audioProxyPath))

	r.GET(audioProxyPath, h.ProxyAudio)

	api := r.Group("/api")
	{
		api.GET("/billing/:status", h.BillingRedirect)

		credits := api.Group("/credits", h.AuthRequired())
		{
			credits.GET("/balance", h.GetBalance)
			credits.GET("/history", h.GetHistory)
		}

		scripts := api.Group("/scripts", h.AuthRequired())
		{
			scripts.GET("", h.ListScripts)
			scripts.POST("", h.CreateScript)
			scripts.GET("/:id", h.GetScript)
		}

		// 回调不走用户鉴权，由共享密钥校验
		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/n8n/:kind", h.N8NMediaCallback)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
