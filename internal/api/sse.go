package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/civic-eye/internal/events"
	"github.com/mr1hm/civic-eye/internal/models"
)

const sseKeepAlive = 15 * time.Second

// streamEvents pushes issue events to the client as server-sent events until
// the client disconnects or the broadcaster closes. Repeated or
// comma-separated ?category= values narrow the stream.
func (h *Handler) streamEvents(c *gin.Context) {
	var categories []string
	for _, raw := range c.QueryArray("category") {
		for _, part := range strings.Split(raw, ",") {
			cat, err := models.ParseCategory(part)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			categories = append(categories, string(cat))
		}
	}

	id, ch := h.broadcaster.SubscribeFiltered(events.CategoryFilter(categories...))
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("ready", gin.H{"subscriber": id})
	c.Writer.Flush()

	ticker := h.clock.NewTicker(sseKeepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			c.SSEvent(string(e.Type), e)
			c.Writer.Flush()
		case <-ticker.Chan():
			c.SSEvent("ping", h.clock.Now().UTC().Format(time.RFC3339))
			c.Writer.Flush()
		}
	}
}
