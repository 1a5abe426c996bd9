package handlers

import (
	"net/http"

	"snipshare/internal/services"
	"snipshare/internal/utils"

	"github.com/gin-gonic/gin"
)

type FavoriteHandler struct {
	reactions *services.ReactionService
}

func NewFavoriteHandler(reactions *services.ReactionService) *FavoriteHandler {
	return &FavoriteHandler{reactions: reactions}
}

// Favorite POST /p/:id/favorite
func (h *FavoriteHandler) Favorite(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.reactions.Favorite(c.Request.Context(), currentUserID(c), id); err != nil {
		RespondError(c, err)
		return
	}
	h.respondState(c, id, true)
}

// Unfavorite DELETE /p/:id/favorite
func (h *FavoriteHandler) Unfavorite(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.reactions.Unfavorite(c.Request.Context(), currentUserID(c), id); err != nil {
		RespondError(c, err)
		return
	}
	h.respondState(c, id, false)
}

func (h *FavoriteHandler) respondState(c *gin.Context, postID uint, favorited bool) {
	count, err := h.reactions.FavoriteCount(c.Request.Context(), postID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": favorited, "favorite_count": count})
}

// ListMine GET /favorites
func (h *FavoriteHandler) ListMine(c *gin.Context) {
	h.list(c, currentUserID(c))
}

// ListByUser GET /u/:id/favorites
func (h *FavoriteHandler) ListByUser(c *gin.Context) {
	uid, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
		return
	}
	h.list(c, uid)
}

func (h *FavoriteHandler) list(c *gin.Context, userID uint) {
	posts, err := h.reactions.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
