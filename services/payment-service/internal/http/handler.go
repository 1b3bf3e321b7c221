package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/trip-booking/pkg/auth"
	"github.com/you/trip-booking/pkg/web"
	"github.com/you/trip-booking/services/payment-service/internal/domain"
	"github.com/you/trip-booking/services/payment-service/internal/service"
)

type Handler struct {
	svc *service.PaymentSvc
}

func NewHandler(svc *service.PaymentSvc) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	secured := r.Group("", auth.JWTAuth())
	secured.POST("/payments", h.Charge)
	secured.GET("/payments", h.List)
	secured.GET("/payments/:id", h.Get)
	secured.POST("/payments/:id/refund", h.Refund)
}

type chargeRequest struct {
	RequestID string `json:"request_id"`
	BookingID string `json:"booking_id" binding:"required"`
	Amount    int64  `json:"amount" binding:"required,gt=0"`
	Method    string `json:"method" binding:"required"`
	Card      struct {
		Number string `json:"number"`
		Expiry string `json:"expiry"`
		CVV    string `json:"cvv"`
	} `json:"card"`
}

func (h *Handler) Charge(c *gin.Context) {
	var req chargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Charge(c.Request.Context(), service.ChargeInput{
		RequestID: req.RequestID,
		BookingID: req.BookingID,
		AccountID: auth.AccountID(c),
		Amount:    req.Amount,
		Method:    req.Method,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedMethod) {
			web.Error(c, http.StatusBadRequest, "unsupported payment method")
			return
		}
		web.Error(c, http.StatusInternalServerError, "payment processing failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

type refundRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) Refund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Refund(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	if p.AccountID != auth.AccountID(c) {
		web.Error(c, http.StatusNotFound, "payment not found")
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c *gin.Context) {
	out, err := h.svc.ListByAccount(c.Request.Context(), auth.AccountID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound), errors.Is(err, domain.ErrNotRefundable):
		// an ineligible refund is indistinguishable from a missing payment
		web.Error(c, http.StatusNotFound, "payment not found or not refundable")
	default:
		web.Error(c, http.StatusInternalServerError, "internal error")
	}
}
