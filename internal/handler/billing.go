package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var billingStatuses = map[string]bool{
	"success": true,
	"pending": true,
	"error":   true,
}

// BillingRedirect 支付渠道回跳，原样带上所有查询参数跳转到前端页面
// GET /api/billing/{success,pending,error}
func (h *Handler) BillingRedirect(c *gin.Context) {
	status := c.Param("status")
	if !billingStatuses[status] {
		c.Status(http.StatusNotFound)
		return
	}

	target := "/payment/" + status
	if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
		target += "?" + rawQuery
	}

	c.Redirect(http.StatusFound, target)
}
