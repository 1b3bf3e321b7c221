package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/trip-booking/pkg/auth"
	"github.com/you/trip-booking/pkg/web"
	"github.com/you/trip-booking/services/booking-service/internal/domain"
	"github.com/you/trip-booking/services/booking-service/internal/service"
)

type Handler struct {
	svc *service.BookingSvc
}

func NewHandler(svc *service.BookingSvc) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	r.GET("/items", h.ListItems)
	r.GET("/items/:id", h.GetItem)

	secured := r.Group("", auth.JWTAuth())
	secured.POST("/bookings", h.Create)
	secured.GET("/bookings", h.List)
	secured.GET("/bookings/:id", h.Get)
	secured.POST("/bookings/:id/cancel", h.Cancel)
	secured.PATCH("/bookings/:id/status", h.UpdateStatus)
	secured.PATCH("/bookings/:id/payment-status", h.UpdatePaymentStatus)
}

func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.svc.Items(c.Request.Context(), domain.Category(c.Query("category")))
	if err != nil {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetItem(c *gin.Context) {
	item, err := h.svc.Item(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type createRequest struct {
	ItemID    string `json:"item_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
	PartySize int    `json:"party_size" binding:"required,min=1"`
}

type createResponse struct {
	BookingID string `json:"booking_id"`
	Total     int64  `json:"total"`
	Status    string `json:"status"`
}

func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	b, err := h.svc.Create(c.Request.Context(), auth.AccountID(c), req.ItemID, req.Date, req.PartySize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createResponse{BookingID: b.ID, Total: b.Total, Status: string(b.Status)})
}

func (h *Handler) List(c *gin.Context) {
	out, err := h.svc.ListByAccount(c.Request.Context(), auth.AccountID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) Get(c *gin.Context) {
	b, err := h.svc.Get(c.Request.Context(), auth.AccountID(c), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) Cancel(c *gin.Context) {
	b, err := h.svc.Cancel(c.Request.Context(), auth.AccountID(c), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	to := domain.BookingStatus(req.Status)
	if !domain.ValidBookingStatus(to) {
		web.Error(c, http.StatusBadRequest, "unknown booking status")
		return
	}
	b, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	to := domain.PaymentStatus(req.PaymentStatus)
	if !domain.ValidPaymentStatus(to) {
		web.Error(c, http.StatusBadRequest, "unknown payment status")
		return
	}
	b, err := h.svc.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrBookingNotFound):
		web.Error(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded),
		errors.Is(err, domain.ErrInvalidPartySize),
		errors.Is(err, domain.ErrInvalidDate):
		web.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotOwner):
		web.Error(c, http.StatusForbidden, err.Error())
	default:
		web.Error(c, http.StatusInternalServerError, "internal error")
	}
}
