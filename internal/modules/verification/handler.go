package verification

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"carwash/internal/modules/booking"
	"carwash/internal/pkg/response"
)

type Handler struct {
	service  *Service
	settings SettingsStore
}

func NewHandler(service *Service, settings SettingsStore) *Handler {
	return &Handler{service: service, settings: settings}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/verification/start", h.start)
	r.POST("/verification/check", h.check)
}

func (h *Handler) start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.InstanceID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "instance_id is required")
		return
	}

	settings, err := h.settings.GetByInstance(c.Request.Context(), req.InstanceID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "please try again")
		return
	}

	result, err := h.service.Start(c.Request.Context(), settings, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

type checkRequest struct {
	InstanceID int64  `json:"instance_id"`
	Phone      string `json:"phone"`
	Code       string `json:"code"`
}

func (h *Handler) check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.InstanceID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "instance_id is required")
		return
	}

	settings, err := h.settings.GetByInstance(c.Request.Context(), req.InstanceID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "please try again")
		return
	}

	reservation, err := h.service.Check(c.Request.Context(), settings, req.Phone, req.Code)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, reservation)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidPhone):
		response.Error(c, http.StatusBadRequest, "INVALID_PHONE", "phone number could not be parsed")
	case errors.Is(err, ErrBadCodeFormat):
		response.Error(c, http.StatusBadRequest, "BAD_CODE_FORMAT", "code must be 4 digits")
	case errors.Is(err, ErrInvalidOrExpired):
		response.Error(c, http.StatusBadRequest, "CODE_INVALID", "code invalid or expired")
	case errors.Is(err, ErrDeliveryFailed):
		response.Error(c, http.StatusServiceUnavailable, "SMS_UNAVAILABLE", "could not send verification sms")
	case errors.Is(err, booking.ErrSlotTaken):
		response.Error(c, http.StatusConflict, "SLOT_TAKEN", "the selected time is no longer available")
	case errors.Is(err, booking.ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid reservation data")
	case errors.Is(err, booking.ErrCodeSpaceExhausted):
		response.Error(c, http.StatusServiceUnavailable, "CODES_EXHAUSTED", "please try again later")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "please try again")
	}
}
