package handler

import (
	"errors"
	"log"
	"net/http"

	"shortscript/internal/repository"
	"shortscript/internal/service"
	"shortscript/pkg/response"

	"github.com/gin-gonic/gin"
)

// ListScripts 当前用户的脚本记录，最新的在前
// GET /api/scripts
func (h *Handler) ListScripts(c *gin.Context) {
	user := currentUser(c)

	scripts, err := h.scriptService.List(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("[Scripts] 查询脚本失败: userID=%s, err=%v", user.ID, err)
		response.ServerError(c)
		return
	}

	response.Success(c, gin.H{"scripts": scripts})
}

// GetScript 脚本详情
// GET /api/scripts/:id
func (h *Handler) GetScript(c *gin.Context) {
	user := currentUser(c)

	script, err := h.scriptService.Get(c.Request.Context(), user.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrScriptNotFound) {
			response.NotFound(c)
			return
		}
		log.Printf("[Scripts] 查询脚本失败: userID=%s, err=%v", user.ID, err)
		response.ServerError(c)
		return
	}

	response.Success(c, gin.H{"script": script})
}

// CreateScriptRequest 创建脚本请求
type CreateScriptRequest struct {
	Topic    string      `json:"topic" binding:"required"`
	Content  string      `json:"content"`
	Duration interface{} `json:"duration"` // "30s" / "1m" / 3
}

// CreateScript 记录脚本并扣除积分
// POST /api/scripts
func (h *Handler) CreateScript(c *gin.Context) {
	var req CreateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "Invalid request body")
		return
	}

	user := currentUser(c)
	script, err := h.scriptService.Create(c.Request.Context(), user.ID, &service.CreateScriptRequest{
		Topic:    req.Topic,
		Content:  req.Content,
		Duration: req.Duration,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTopicRequired):
			response.ParamError(c, "Topic is required")
		case errors.Is(err, repository.ErrInsufficientCredits):
			response.Error(c, http.StatusPaymentRequired, response.MsgInsufficientCredits)
		default:
			log.Printf("[Scripts] 创建脚本失败: userID=%s, err=%v", user.ID, err)
			response.ServerError(c)
		}
		return
	}

	response.Created(c, gin.H{"script": script})
}
