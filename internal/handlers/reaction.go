package handlers

import (
	"context"
	"net/http"

	"snipshare/internal/models"
	"snipshare/internal/services"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	reactions *services.ReactionService
}

func NewReactionHandler(reactions *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

// Like POST /p/:id/like
func (h *ReactionHandler) Like(c *gin.Context) {
	h.react(c, h.reactions.Like, models.ReactionLike)
}

// Dislike POST /p/:id/dislike
func (h *ReactionHandler) Dislike(c *gin.Context) {
	h.react(c, h.reactions.Dislike, models.ReactionDislike)
}

type reactFunc func(ctx context.Context, userID, postID uint) (services.Counters, error)

func (h *ReactionHandler) react(c *gin.Context, fn reactFunc, reaction models.Reaction) {
	id, ok := postID(c)
	if !ok {
		return
	}

	counters, err := fn(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"likes":    counters.Likes,
		"dislikes": counters.Dislikes,
		"reaction": reaction.String(),
	})
}
