package handler

import (
	"log"
	"strconv"

	"shortscript/internal/service"
	"shortscript/pkg/response"

	"github.com/gin-gonic/gin"
)

// GetBalance 查询积分余额
// GET /api/credits/balance
func (h *Handler) GetBalance(c *gin.Context) {
	user := currentUser(c)

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), user.ID)
	if err != nil {
		log.Printf("[Credits] 查询余额失败: userID=%s, err=%v", user.ID, err)
		response.ServerError(c)
		return
	}

	response.Success(c, balance)
}

// GetHistory 分页查询积分流水
// GET /api/credits/history?limit=50&page=1
func (h *Handler) GetHistory(c *gin.Context) {
	user := currentUser(c)

	limit := queryInt(c, "limit", service.DefaultHistoryLimit)
	page := queryInt(c, "page", 1)

	history, err := h.ledgerService.History(c.Request.Context(), user.ID, page, limit)
	if err != nil {
		log.Printf("[Credits] 查询流水失败: userID=%s, err=%v", user.ID, err)
		response.ServerError(c)
		return
	}

	response.Success(c, history)
}

// queryInt 解析整数参数，缺失或非数字时使用默认值
func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return n
}
