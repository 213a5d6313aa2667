package api

import (
	"net/http"

	"shopping-service/internal/service"

	"github.com/gin-gonic/gin"
)

type toggleRequest struct {
	// Purchased is the caller's last known value; the server flips it.
	Purchased *bool `json:"purchased"`
}

type finishStoreRequest struct {
	Store string `json:"store"`
}

// startSession starts the list's shopping run. A repeated request with the
// same Idempotency-Key returns the session it created.
func (h *Handler) startSession(c *gin.Context) {
	var req service.StartSessionRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	state, err := h.sessions.Start(c.Request.Context(), &req, c.GetHeader("Idempotency-Key"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, state)
}

func (h *Handler) resumeSession(c *gin.Context) {
	state, err := h.sessions.Resume(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) getSession(c *gin.Context) {
	state, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) togglePurchased(c *gin.Context) {
	var req toggleRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.sessions.TogglePurchased(c.Request.Context(), c.Param("id"), c.Param("itemId"), req.Purchased)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) markNotFound(c *gin.Context) {
	res, err := h.sessions.MarkNotFound(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// finishStore signals the shopper is done at a store. The body names the
// store being left so a retried request is recognised and not applied twice.
func (h *Handler) finishStore(c *gin.Context) {
	var req finishStoreRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	res, err := h.sessions.FinishStore(c.Request.Context(), c.Param("id"), req.Store)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) visibleItems(c *gin.Context) {
	items, err := h.views.Visible(c.Request.Context(), c.Param("id"), c.Query("store"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) summary(c *gin.Context) {
	sum, err := h.sessions.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
