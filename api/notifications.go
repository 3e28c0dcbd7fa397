package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/auth"
	"github.com/jackjohndoe/booking-backend-spring-sub001/internal/kafka"
)

type NotificationInbox interface {
	ListNotifications(ctx context.Context, recipient string, limit int64) ([]kafka.NotificationEvent, error)
}

type NotificationHandler struct {
	inbox NotificationInbox
}

func NewNotificationHandler(inbox NotificationInbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.GET("/notifications", h.list)
}

func (h *NotificationHandler) list(c *gin.Context) {
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	events, err := h.inbox.ListNotifications(c.Request.Context(), auth.FromContext(c).Email, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": events})
}
