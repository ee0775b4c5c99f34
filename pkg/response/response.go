package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	MsgUnauthorized        = "Unauthorized"
	MsgInternalError       = "Internal server error"
	MsgInsufficientCredits = "Insufficient credits"
	MsgNotFound            = "Not found"
	MsgBodyTooLarge        = "Request body too large"
)

// ErrorBody 错误响应体，不携带任何内部错误细节
type ErrorBody struct {
	Error string `json:"error"`
}

// Success 200，直接返回业务数据
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

func Error(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Error: message})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, MsgUnauthorized)
}

func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, MsgNotFound)
}

// ServerError 500，错误原因只记录在服务端日志
func ServerError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, MsgInternalError)
}
