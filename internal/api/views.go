package api

import (
	"net/http"

	"shopping-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const snapshotEvent = "snapshot"

func (h *Handler) listerView(c *gin.Context) {
	view, err := h.views.Lister(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) shopperView(c *gin.Context) {
	view, err := h.views.Shopper(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// streamListerView pushes a fresh lister snapshot as a server-sent event on
// every catalog change until the client disconnects.
func (h *Handler) streamListerView(c *gin.Context) {
	h.prepareStream(c)
	err := h.views.WatchLister(c.Request.Context(), func(v *service.ListerView) error {
		return h.sendSnapshot(c, v)
	})
	h.endStream(c, err)
}

// streamShopperView is the shopper's counterpart of streamListerView
func (h *Handler) streamShopperView(c *gin.Context) {
	h.prepareStream(c)
	err := h.views.WatchShopper(c.Request.Context(), func(v *service.ShopperView) error {
		return h.sendSnapshot(c, v)
	})
	h.endStream(c, err)
}

func (h *Handler) prepareStream(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

func (h *Handler) sendSnapshot(c *gin.Context, snapshot interface{}) error {
	if err := c.Request.Context().Err(); err != nil {
		return err
	}
	c.SSEvent(snapshotEvent, snapshot)
	c.Writer.Flush()
	return nil
}

func (h *Handler) endStream(c *gin.Context, err error) {
	if err == nil || c.Request.Context().Err() != nil {
		return
	}
	if !c.Writer.Written() {
		h.writeError(c, err)
		return
	}
	h.logger.Warn("View stream ended", zap.String("path", c.FullPath()), zap.Error(err))
	c.SSEvent("error", gin.H{"error": "stream interrupted"})
	c.Writer.Flush()
}
