package api

import (
	"net/http"

	"shopping-service/internal/service"

	"github.com/gin-gonic/gin"
)

// registerPush stores a device subscription handle for a role
func (h *Handler) registerPush(c *gin.Context) {
	var req service.RegisterRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	sub, err := h.push.Register(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) listPush(c *gin.Context) {
	subs, err := h.push.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}
