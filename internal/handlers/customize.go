package handlers

import (
	"context"
	"net/http"

	"snipshare/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type CustomizeHandler struct {
	llm *services.LLMService
}

func NewCustomizeHandler(llm *services.LLMService) *CustomizeHandler {
	return &CustomizeHandler{llm: llm}
}

type customizeRequest struct {
	Code        string `json:"code" binding:"required"`
	Language    string `json:"language"`
	Instruction string `json:"instruction" binding:"required"`
}

// Customize 让模型按说明改写代码，结果不落库
func (h *CustomizeHandler) Customize(c *gin.Context) {
	var req customizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	code, err := h.llm.CustomizeCode(c.Request.Context(), req.Code, req.Language, req.Instruction)
	if err != nil {
		if errors.Is(err, services.ErrLLMDisabled) || errors.Is(err, services.ErrContentUnsuitable) ||
			errors.Is(err, services.ErrInvalidInput) || errors.Is(err, context.DeadlineExceeded) {
			RespondError(c, err)
			return
		}
		log.WithError(err).Warn("customize code failed")
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "UPSTREAM_FAILURE", "message": "code customization failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}
