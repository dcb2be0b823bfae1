package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"seungpyo.lee/BlogPlatform/internal/config"
	"seungpyo.lee/BlogPlatform/internal/domain"
	"seungpyo.lee/BlogPlatform/internal/model"
	"seungpyo.lee/BlogPlatform/pkg/logger"
	"seungpyo.lee/BlogPlatform/pkg/util"
)

// PostHandler handles HTTP requests for blog posts.
type PostHandler struct {
	Service domain.PostService
	config  *config.PostConfig
	log     *logger.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service domain.PostService, config *config.PostConfig, log *logger.Logger) *PostHandler {
	return &PostHandler{Service: service, config: config, log: log}
}

// GetPosts handles GET /posts. Lists posts with optional filters.
func (h *PostHandler) GetPosts(c *gin.Context) {
	query := domain.ParsePostQuery(c.Request.URL.Query(), h.config.DefaultPageLimit, h.config.MaxPageLimit)
	page, err := h.Service.ListPosts(c.Request.Context(), query)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, model.ListResponse{
		Success:    true,
		Count:      len(page.Posts),
		Total:      page.Total,
		Pagination: page.Pagination,
		Data:       page.Posts,
	})
}

// GetPost handles GET /posts/:id. Retrieves a single post and counts the view.
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	post, err := h.Service.GetPost(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, model.NewPostDetail(post))
}

// CreatePost handles POST /posts. Creates a new blog post.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req domain.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, bindError(err))
		return
	}
	post, err := h.Service.CreatePost(c.Request.Context(), actor(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusCreated, post)
}

// UpdatePost handles PUT /posts/:id. Only the supplied fields change.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	var req domain.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, bindError(err))
		return
	}
	post, err := h.Service.UpdatePost(c.Request.Context(), id, actor(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, post)
}

// DeletePost handles DELETE /posts/:id.
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	if err := h.Service.DeletePost(c.Request.Context(), id, actor(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{})
}

// AddComment handles POST /posts/:id/comments and returns the comment log.
func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	var req model.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, bindError(err))
		return
	}
	comments, err := h.Service.AddComment(c.Request.Context(), id, actor(c), req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	respondOK(c, http.StatusOK, comments)
}

// GetComments handles GET /posts/:id/comments. Pages through the full log.
func (h *PostHandler) GetComments(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	window := domain.ParseWindow(c.Request.URL.Query(), h.config.DefaultPageLimit, h.config.MaxPageLimit)
	page, err := h.Service.ListComments(c.Request.Context(), id, window)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, model.ListResponse{
		Success:    true,
		Count:      len(page.Comments),
		Total:      page.Total,
		Pagination: page.Pagination,
		Data:       page.Comments,
	})
}

// GetTags handles GET /tags.
func (h *PostHandler) GetTags(c *gin.Context) {
	tags, err := h.Service.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, model.CollectionResponse{Success: true, Count: len(tags), Data: tags})
}

// postID parses the :id path parameter. A malformed id can never match a
// post, so it is reported as not found.
func (h *PostHandler) postID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, ok := domain.ParseID(raw)
	if !ok {
		respondMessage(c, http.StatusNotFound, fmt.Sprintf("%s with id of %s", domain.ErrPostNotFound, raw))
		return 0, false
	}
	return id, true
}

// actor resolves the caller set by the auth middleware, or nil.
func actor(c *gin.Context) *domain.Actor {
	uid, ok := util.GetUserID(c)
	if !ok {
		return nil
	}
	return &domain.Actor{ID: uid, Role: domain.Role(util.GetRole(c))}
}
