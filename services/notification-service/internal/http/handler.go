package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/trip-booking/pkg/auth"
	"github.com/you/trip-booking/pkg/web"
	"github.com/you/trip-booking/services/notification-service/internal/domain"
	"github.com/you/trip-booking/services/notification-service/internal/service"
	"github.com/you/trip-booking/services/notification-service/internal/template"
)

type Handler struct {
	svc *service.NotificationSvc
}

func NewHandler(svc *service.NotificationSvc) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	secured := r.Group("", auth.JWTAuth())
	secured.POST("/notifications", h.Send)
	secured.GET("/notifications", h.List)
	secured.GET("/notifications/stats", h.Stats)
	secured.PATCH("/notifications/:id/read", h.MarkRead)
}

type sendRequest struct {
	AccountID string        `json:"account_id"`
	Type      string        `json:"type" binding:"required"`
	Data      template.Data `json:"data"`
}

func (h *Handler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	// default to the caller when no target account is given
	if req.AccountID == "" {
		req.AccountID = auth.AccountID(c)
	}
	n, err := h.svc.Send(c.Request.Context(), req.AccountID, req.Type, req.Data)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}

func (h *Handler) MarkRead(c *gin.Context) {
	n, err := h.svc.MarkRead(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) List(c *gin.Context) {
	out, err := h.svc.ListByAccount(c.Request.Context(), auth.AccountID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownTemplate):
		web.Error(c, http.StatusBadRequest, "unknown notification type")
	case errors.Is(err, domain.ErrNotificationNotFound):
		web.Error(c, http.StatusNotFound, "notification not found")
	default:
		web.Error(c, http.StatusInternalServerError, "internal error")
	}
}
