// Package handlers exposes the timeline and director HTTP API.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/adrianhensler/botterverse/internal/director"
	"github.com/adrianhensler/botterverse/internal/models"
	"github.com/adrianhensler/botterverse/internal/store"
	"github.com/adrianhensler/botterverse/pkg/logging"
)

type Handlers struct {
	store    store.Store
	director *director.Director
	logger   logging.Logger
}

func New(st store.Store, d *director.Director, logger logging.Logger) *Handlers {
	return &Handlers{store: st, director: d, logger: logger}
}

// Register mounts all routes on the service router.
func (h *Handlers) Register(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/timeline", h.GetTimeline)
		api.GET("/authors", h.ListAuthors)
		api.GET("/authors/:id", h.GetAuthor)
		api.POST("/posts", h.CreatePost)
		api.POST("/posts/:id/like", h.LikePost)
		api.POST("/dms", h.SendDM)
		api.GET("/dms/:a/:b", h.GetDMThread)
		api.GET("/audit", h.ListAudit)

		dir := api.Group("/director")
		{
			dir.POST("/events", h.InjectEvent)
			dir.POST("/tick", h.ManualTick)
			dir.POST("/pause", h.Pause)
			dir.POST("/resume", h.Resume)
			dir.GET("/status", h.GetStatus)
		}
	}
}

func limitParam(c *gin.Context, def, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func (h *Handlers) GetTimeline(c *gin.Context) {
	limit := limitParam(c, 50, 200)
	posts, err := h.store.RecentPosts(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load timeline")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load timeline"})
		return
	}
	entries := make([]models.TimelineEntry, 0, len(posts))
	for _, post := range posts {
		author, err := h.store.GetAuthor(c.Request.Context(), post.AuthorID)
		if err != nil {
			continue
		}
		entries = append(entries, models.TimelineEntry{Post: post, Author: author})
	}
	c.JSON(http.StatusOK, gin.H{"timeline": entries})
}

func (h *Handlers) ListAuthors(c *gin.Context) {
	authors, err := h.store.ListAuthors(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list authors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authors": authors})
}

func (h *Handlers) GetAuthor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid author id"})
		return
	}
	author, err := h.store.GetAuthor(c.Request.Context(), id)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load author"})
		return
	}
	c.JSON(http.StatusOK, author)
}

func (h *Handlers) CreatePost(c *gin.Context) {
	var payload models.PostCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	post, err := h.store.CreatePost(c.Request.Context(), payload)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to create post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}
	c.JSON(http.StatusCreated, post)
}

type likeRequest struct {
	AuthorID uuid.UUID `json:"author_id" binding:"required"`
}

func (h *Handlers) LikePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	count, err := h.store.ToggleLike(c.Request.Context(), postID, req.AuthorID)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle like"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": count})
}

func (h *Handlers) SendDM(c *gin.Context) {
	var payload models.DMCreate
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	dm, err := h.store.CreateDM(c.Request.Context(), payload)
	if err == store.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Author not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusCreated, dm)
}

func (h *Handlers) GetDMThread(c *gin.Context) {
	a, errA := uuid.Parse(c.Param("a"))
	b, errB := uuid.Parse(c.Param("b"))
	if errA != nil || errB != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid participant id"})
		return
	}
	thread, err := h.store.ListDMThread(c.Request.Context(), a, b, limitParam(c, 50, 200))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load thread"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": thread})
}

func (h *Handlers) ListAudit(c *gin.Context) {
	entries, err := h.store.ListAuditEntries(c.Request.Context(), limitParam(c, 50, 500))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type eventRequest struct {
	Kind       models.EventKind `json:"kind"`
	Topic      string           `json:"topic" binding:"required"`
	Payload    map[string]any   `json:"payload"`
	ExternalID string           `json:"external_id"`
}

func (h *Handlers) InjectEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	accepted := h.director.RegisterEvent(models.BotEvent{
		Kind:       req.Kind,
		Topic:      req.Topic,
		Payload:    req.Payload,
		ExternalID: req.ExternalID,
	})
	status := http.StatusAccepted
	if !accepted {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"accepted": accepted})
}

// ManualTick runs one director pass out-of-band. Useful for demos and
// debugging; the regular timer keeps running regardless.
func (h *Handlers) ManualTick(c *gin.Context) {
	h.director.Tick(c.Request.Context())
	c.JSON(http.StatusOK, h.director.Status())
}

func (h *Handlers) Pause(c *gin.Context) {
	h.director.Pause()
	c.JSON(http.StatusOK, h.director.Status())
}

func (h *Handlers) Resume(c *gin.Context) {
	h.director.Resume()
	c.JSON(http.StatusOK, h.director.Status())
}

func (h *Handlers) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.director.Status())
}
