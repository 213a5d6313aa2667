package api

import (
	"net/http"

	"shopping-service/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listStores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stores": h.catalog.Stores()})
}

func (h *Handler) listItems(c *gin.Context) {
	items, err := h.catalog.ListItems(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// addItem handles item creation by the lister
func (h *Handler) addItem(c *gin.Context) {
	var req service.AddItemRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	item, err := h.catalog.AddItem(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
	if err := h.catalog.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearList(c *gin.Context) {
	removed, err := h.catalog.ClearList(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
