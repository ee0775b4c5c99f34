package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"shortscript/internal/audio"

	"github.com/gin-gonic/gin"
)

// ProxyAudio 代理可信源站的音频文件
// GET /api/audio/proxy?url=...
func (h *Handler) ProxyAudio(c *gin.Context) {
	rawURL := c.Query("url")

	if err := h.audioProxy.Allowed(rawURL); err != nil {
		c.String(http.StatusBadRequest, "Invalid or untrusted audio url")
		return
	}

	result, err := h.audioProxy.Fetch(c.Request.Context(), rawURL)
	if err != nil {
		var upstream *audio.UpstreamError
		if errors.As(err, &upstream) {
			log.Printf("[AudioProxy] 源站返回异常: status=%d", upstream.StatusCode)
			c.String(upstream.StatusCode, "Failed to fetch audio")
			return
		}
		log.Printf("[AudioProxy] 代理音频失败: %v", err)
		c.String(http.StatusInternalServerError, "Failed to proxy audio")
		return
	}

	c.Header("Content-Length", strconv.Itoa(len(result.Body)))
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Header("Access-Control-Allow-Origin", "*")
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
