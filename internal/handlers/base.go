package handlers

import (
	"context"
	"net/http"

	"snipshare/internal/middleware"
	"snipshare/internal/services"
	"snipshare/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// errorStatus 业务错误到 HTTP 状态码和错误码的映射，按顺序匹配
var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrInvalidUser, http.StatusUnauthorized, "INVALID_USER"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{services.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{services.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{services.ErrAlreadyReacted, http.StatusConflict, "ALREADY_REACTED"},
	{services.ErrAlreadyFavorited, http.StatusConflict, "ALREADY_FAVORITED"},
	{services.ErrNotFavorited, http.StatusConflict, "NOT_FAVORITED"},
	{services.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{services.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{services.ErrInvalidCode, http.StatusBadRequest, "INVALID_CODE"},
	{services.ErrContentUnsuitable, http.StatusUnprocessableEntity, "CONTENT_UNSUITABLE"},
	{services.ErrLLMDisabled, http.StatusServiceUnavailable, "LLM_DISABLED"},
	{services.ErrStorage, http.StatusInternalServerError, "STORAGE_FAILURE"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT"},
}

// RespondError 把 service 返回的错误写成统一的 JSON 错误体
func RespondError(c *gin.Context, err error) {
	_ = c.Error(err)
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			body := gin.H{"error": e.code, "message": e.err.Error()}
			if e.code == "STORAGE_FAILURE" {
				body["retryable"] = true
			}
			c.AbortWithStatusJSON(e.status, body)
			return
		}
	}

	log.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "INTERNAL",
		"message": "internal error",
	})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "INVALID_INPUT", "message": message})
}

// postID 解析路径参数 :id，非法时已写入 400
func postID(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
	}
	return id, ok
}

func currentUserID(c *gin.Context) uint {
	return middleware.CurrentUserID(c)
}
