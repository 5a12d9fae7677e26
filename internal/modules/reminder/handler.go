package reminder

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"carwash/internal/pkg/response"
)

// Handler exposes a manual sweep trigger on the internal surface. The
// reminder daemon is the normal driver; this exists for operations.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/reminders/sweep", h.sweep)
}

func (h *Handler) sweep(c *gin.Context) {
	stats, err := h.service.Sweep(c.Request.Context(), time.Now())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "sweep failed")
		return
	}
	response.Success(c, http.StatusOK, stats)
}
