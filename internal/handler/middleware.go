package handler

import (
	"log"
	"net/http"
	"time"

	"shortscript/internal/model"
	"shortscript/pkg/response"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	ctxRequestID    = "requestID"
	ctxUser         = "user"
)

// RequestIDMiddleware 透传或生成请求ID
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxRequestID, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		// query 里可能带有音频地址等长参数，只记录路径
		log.Printf("[HTTP] %d | %13v | %15s | %-7s %s | %s",
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			c.Request.Method,
			path,
			c.GetString(ctxRequestID),
		)
	}
}

// RecoveryMiddleware 恢复中间件，panic 转成通用 500
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("[PANIC] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
				response.ServerError(c)
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件，origins 含 "*" 或为空时放开所有来源
// openPaths 中的路径（音频代理）始终对任意来源开放且不带凭证，不受 origins 限制
func CORSMiddleware(origins []string, openPaths ...string) gin.HandlerFunc {
	headers := []string{"Origin", "Content-Type", "Authorization", RequestIDHeader}
	exposed := []string{"Content-Length", RequestIDHeader}

	corsConfig := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  headers,
		ExposeHeaders: exposed,
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
			break
		}
	}
	if allowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
	}
	restricted := cors.New(corsConfig)

	if len(openPaths) == 0 {
		return restricted
	}

	open := cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:    headers,
		ExposeHeaders:   exposed,
		MaxAge:          12 * time.Hour,
	})
	openSet := make(map[string]struct{}, len(openPaths))
	for _, p := range openPaths {
		openSet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := openSet[c.Request.URL.Path]; ok {
			open(c)
			return
		}
		restricted(c)
	}
}

// AuthRequired 校验 bearer token，通过后把用户放进上下文
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := h.gate.Authenticate(c.Request)
		if err != nil {
			log.Printf("[AuthGate] 加载用户失败: %v", err)
			response.ServerError(c)
			return
		}
		if user == nil {
			response.Unauthorized(c)
			return
		}

		c.Set(ctxUser, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *model.User {
	user, _ := c.MustGet(ctxUser).(*model.User)
	return user
}
