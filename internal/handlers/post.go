package handlers

import (
	"net/http"
	"strconv"

	"snipshare/internal/models"
	"snipshare/internal/services"
	"snipshare/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts     *services.PostService
	reactions *services.ReactionService
}

func NewPostHandler(posts *services.PostService, reactions *services.ReactionService) *PostHandler {
	return &PostHandler{posts: posts, reactions: reactions}
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

type commentView struct {
	models.Comment
	ContentHTML string `json:"content_html"`
}

// List 帖子列表 /posts?sort=new|hot&limit=30
func (h *PostHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	posts, err := h.posts.ListPosts(c.Request.Context(), c.DefaultQuery("sort", services.SortNew), limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Detail 帖子详情，附带当前用户的态度和收藏状态
func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	post, err := h.posts.GetPost(ctx, id)
	if err != nil {
		RespondError(c, err)
		return
	}

	uid := currentUserID(c)
	reaction, err := h.reactions.Reaction(ctx, uid, id)
	if err != nil {
		RespondError(c, err)
		return
	}
	favorited, err := h.reactions.IsFavorited(ctx, uid, id)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post":             post,
		"description_html": string(utils.RenderMarkdown(post.Description)),
		"reaction":         reaction.String(),
		"favorited":        favorited,
	})
}

func (h *PostHandler) Create(c *gin.Context) {
	var req services.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// Delete 只有作者能删除，连带删除互动、评论、收藏
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), currentUserID(c), id); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) CreateComment(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	comment, err := h.posts.CreateComment(c.Request.Context(), currentUserID(c), id, req.Content)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": renderComment(*comment)})
}

func (h *PostHandler) ListComments(c *gin.Context) {
	id, ok := postID(c)
	if !ok {
		return
	}
	comments, err := h.posts.ListComments(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err)
		return
	}

	views := make([]commentView, len(comments))
	for i, cm := range comments {
		views[i] = renderComment(cm)
	}
	c.JSON(http.StatusOK, gin.H{"comments": views})
}

func renderComment(cm models.Comment) commentView {
	return commentView{Comment: cm, ContentHTML: string(utils.RenderMarkdown(cm.Content))}
}
