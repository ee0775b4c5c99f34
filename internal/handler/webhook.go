package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"shortscript/internal/repository"
	"shortscript/internal/service"
	"shortscript/internal/webhook"
	"shortscript/pkg/response"

	"github.com/gin-gonic/gin"
)

const webhookBodyLimit = 1 << 20 // 1MiB

type mediaCallbackBody struct {
	ScriptID string          `json:"scriptId"`
	Results  json.RawMessage `json:"results"`
	AudioURL string          `json:"audioUrl"`
}

// N8NMediaCallback n8n 素材搜索结果回调
// POST /api/webhooks/n8n/{images,videos,audio}
func (h *Handler) N8NMediaCallback(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookBodyLimit+1))
	if err != nil {
		response.ParamError(c, "Invalid request body")
		return
	}
	if len(body) > webhookBodyLimit {
		log.Printf("[Webhook] 回调请求体超过 %d 字节: path=%s", webhookBodyLimit, c.Request.URL.Path)
		response.Error(c, http.StatusRequestEntityTooLarge, response.MsgBodyTooLarge)
		return
	}

	signature := c.GetHeader(webhook.SignatureHeader)
	if signature == "" {
		signature = c.GetHeader(webhook.LegacySignatureHeader)
	}
	if !h.webhookVerifier.Verify(body, signature) {
		log.Printf("[Webhook] 签名校验失败: path=%s, ip=%s", c.Request.URL.Path, c.ClientIP())
		response.Unauthorized(c)
		return
	}

	var payload mediaCallbackBody
	if err := json.Unmarshal(body, &payload); err != nil || payload.ScriptID == "" {
		response.ParamError(c, "Invalid request body")
		return
	}

	script, err := h.scriptService.ApplyMedia(c.Request.Context(), &service.MediaCallback{
		ScriptID: payload.ScriptID,
		Kind:     c.Param("kind"),
		Results:  payload.Results,
		AudioURL: payload.AudioURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrScriptNotFound):
			response.NotFound(c)
		case errors.Is(err, service.ErrInvalidMediaKind):
			response.NotFound(c)
		case errors.Is(err, service.ErrInvalidMedia):
			response.ParamError(c, "Invalid media payload")
		default:
			log.Printf("[Webhook] 保存素材失败: scriptID=%s, err=%v", payload.ScriptID, err)
			response.ServerError(c)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"scriptId": script.ID,
		"status":   script.Status,
	})
}
