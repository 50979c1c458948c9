package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListNotifications returns the caller's notifications, newest first.
// ?unread=true limits the list to unread ones.
func (h *Handler) ListNotifications(c *gin.Context) {
	list, err := h.notes.ForUser(c.Request.Context(), caller(c).ID, c.Query("unread") == "true")
	if err != nil {
		h.fail(c, err)
		return
	}
	if list == nil {
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	id, err := idParam(c, "id", "Notification not found")
	if err != nil {
		h.fail(c, err)
		return
	}
	note, err := h.notes.MarkRead(c.Request.Context(), caller(c).ID, id)
	if err != nil {
		h.fail(c, err)
		return
	}
	note.IsRead = true
	c.JSON(http.StatusOK, note)
}
