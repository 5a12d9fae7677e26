package availability

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"carwash/internal/domain"
	"carwash/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/slots", h.getSlots)
}

func (h *Handler) getSlots(c *gin.Context) {
	instanceID, err := strconv.ParseInt(c.Query("instance_id"), 10, 64)
	if err != nil || instanceID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "instance_id is required")
		return
	}
	serviceID, err := strconv.ParseInt(c.Query("service_id"), 10, 64)
	if err != nil || serviceID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "service_id is required")
		return
	}

	addonIDs, err := parseIDList(c.Query("addon_ids"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "addon_ids must be a comma-separated id list")
		return
	}

	var exclude int64
	if raw := c.Query("exclude_reservation_id"); raw != "" {
		if exclude, err = strconv.ParseInt(raw, 10, 64); err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "exclude_reservation_id must be an id")
			return
		}
	}

	days, err := h.service.ComputeAvailableSlots(c.Request.Context(), SlotQuery{
		InstanceID:           instanceID,
		ServiceID:            serviceID,
		AddonIDs:             addonIDs,
		CarSize:              domain.CarSize(c.Query("car_size")),
		Now:                  time.Now(),
		ExcludeReservationID: exclude,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrServiceNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "service not found")
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "please try again")
		}
		return
	}

	if days == nil {
		days = []AvailableDay{}
	}
	response.Success(c, http.StatusOK, days)
}

func parseIDList(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
