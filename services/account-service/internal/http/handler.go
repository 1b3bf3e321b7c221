package httpx

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/trip-booking/pkg/auth"
	"github.com/you/trip-booking/pkg/web"
	"github.com/you/trip-booking/services/account-service/internal/domain"
	"github.com/you/trip-booking/services/account-service/internal/service"
)

type Handler struct {
	svc *service.AccountSvc
}

func NewHandler(svc *service.AccountSvc) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/register", h.RegisterAccount)
	r.POST("/login", h.Login)

	me := r.Group("/profile", auth.JWTAuth())
	me.GET("", h.GetProfile)
	me.PUT("", h.UpdateProfile)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type authResponse struct {
	Token   string         `json:"token"`
	Account domain.Profile `json:"account"`
}

func (h *Handler) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	a, token, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			web.Error(c, http.StatusConflict, "email already registered")
			return
		}
		web.Error(c, http.StatusInternalServerError, "registration failed")
		return
	}
	c.JSON(http.StatusCreated, authResponse{Token: token, Account: a.Profile()})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	a, token, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			web.Error(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		web.Error(c, http.StatusInternalServerError, "login failed")
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, Account: a.Profile()})
}

func (h *Handler) GetProfile(c *gin.Context) {
	a, err := h.svc.Profile(c.Request.Context(), auth.AccountID(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.Profile())
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var upd domain.ProfileUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		web.Error(c, http.StatusBadRequest, err.Error())
		return
	}
	a, err := h.svc.UpdateProfile(c.Request.Context(), auth.AccountID(c), upd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, a.Profile())
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		web.Error(c, http.StatusNotFound, "account not found")
	default:
		web.Error(c, http.StatusInternalServerError, "internal error")
	}
}
