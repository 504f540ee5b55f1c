package router

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nguyentantai21042004/mockjson/internal/store"
)

// Register wires the data routes. Top-level keys of the data file are
// addressed through the :resource parameter, so routes follow the model
// across reloads without re-registration.
func (h *implRouter) Register(r gin.IRouter) {
	r.GET("/db", h.getDB)
	r.GET("/healthz", h.getHealth)
	r.GET("/:resource", h.getResource)
	r.GET("/:resource/:id", h.getItem)
	r.POST("/:resource", h.createItem)
	r.PUT("/:resource/:id", h.replaceItem)
	r.PATCH("/:resource/:id", h.mergeItem)
	r.DELETE("/:resource/:id", h.deleteItem)
}

func (h *implRouter) getDB(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Snapshot())
}

func (h *implRouter) getHealth(c *gin.Context) {
	state := h.store.State()
	resp := gin.H{
		"status":    "ok",
		"version":   state.Version,
		"loaded_at": state.LoadedAt,
	}
	if state.LastError != nil {
		resp["status"] = "degraded"
		resp["last_error"] = state.LastError.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *implRouter) getResource(c *gin.Context) {
	v, ok := h.store.Resource(c.Param("resource"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{})
		return
	}

	items, isCollection := v.([]interface{})
	if !isCollection {
		// Singleton resource: served as-is, query params ignored
		c.JSON(http.StatusOK, v)
		return
	}

	c.JSON(http.StatusOK, applyQuery(items, c.Request.URL.Query()))
}

func (h *implRouter) getItem(c *gin.Context) {
	item, err := h.store.Find(c.Param("resource"), c.Param("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *implRouter) createItem(c *gin.Context) {
	var item map[string]interface{}
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.store.Insert(c.Request.Context(), c.Param("resource"), item)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *implRouter) replaceItem(c *gin.Context) {
	var item map[string]interface{}
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.store.Replace(c.Request.Context(), c.Param("resource"), c.Param("id"), item)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *implRouter) mergeItem(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.store.Merge(c.Request.Context(), c.Param("resource"), c.Param("id"), fields)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *implRouter) deleteItem(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("resource"), c.Param("id")); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *implRouter) renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrNotCollection):
		c.JSON(http.StatusNotFound, gin.H{})
	case errors.Is(err, store.ErrExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error(c.Request.Context(), "%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
