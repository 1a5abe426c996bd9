package handlers

import (
	"net/http"

	"snipshare/internal/services"
	"snipshare/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	accounts *services.AccountService
	posts    *services.PostService
}

func NewUserHandler(accounts *services.AccountService, posts *services.PostService) *UserHandler {
	return &UserHandler{accounts: accounts, posts: posts}
}

// Profile - 用户主页 /u/:id
func (h *UserHandler) Profile(c *gin.Context) {
	uid, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid id")
		return
	}
	ctx := c.Request.Context()

	user, err := h.accounts.FindByID(ctx, uid)
	if err != nil {
		RespondError(c, err)
		return
	}

	posts, err := h.posts.ListPostsByUser(ctx, user.ID, 50)
	if err != nil {
		RespondError(c, err)
		return
	}

	totalLikes, err := h.posts.TotalLikes(ctx, user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"posts":       posts,
		"total_likes": totalLikes,
		"bio_html":    string(utils.RenderMarkdown(user.Bio)),
	})
}
