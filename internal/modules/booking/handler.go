package booking

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carwash/internal/domain"
	"carwash/internal/pkg/response"
)

// SettingsReader resolves the effective per-instance configuration,
// defaults included.
type SettingsReader interface {
	GetByInstance(ctx context.Context, instanceID int64) (domain.BookingSettings, error)
}

// Handler serves the internal back-office surface. The widget never calls
// these routes: commits happen through the verification module.
type Handler struct {
	service  *Service
	settings SettingsReader
}

func NewHandler(service *Service, settings SettingsReader) *Handler {
	return &Handler{service: service, settings: settings}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/reservations", h.listByDate)
	r.GET("/settings", h.getSettings)
}

func (h *Handler) getSettings(c *gin.Context) {
	instanceID, err := strconv.ParseInt(c.Query("instance_id"), 10, 64)
	if err != nil || instanceID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "instance_id is required")
		return
	}

	settings, err := h.settings.GetByInstance(c.Request.Context(), instanceID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "please try again")
		return
	}
	response.Success(c, http.StatusOK, settings)
}

func (h *Handler) listByDate(c *gin.Context) {
	instanceID, err := strconv.ParseInt(c.Query("instance_id"), 10, 64)
	if err != nil || instanceID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "instance_id is required")
		return
	}
	date := c.Query("date")

	list, err := h.service.GetReservationsByDate(c.Request.Context(), instanceID, date)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "please try again")
		return
	}
	response.Success(c, http.StatusOK, list)
}
