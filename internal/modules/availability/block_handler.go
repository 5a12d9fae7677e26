package availability

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"carwash/internal/domain"
	"carwash/internal/pkg/response"
)

type BlockWriter interface {
	CreateManual(ctx context.Context, block *domain.StationBlock) error
}

// BlockHandler lets the back office take a station out of the grid for a
// period: maintenance, a walk-in, a private event. Manual blocks look exactly
// like reservation blocks to the slot generator.
type BlockHandler struct {
	blocks BlockWriter
}

func NewBlockHandler(blocks BlockWriter) *BlockHandler {
	return &BlockHandler{blocks: blocks}
}

func (h *BlockHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/blocks", h.createBlock)
}

type createBlockRequest struct {
	InstanceID int64  `json:"instance_id"`
	StationID  int64  `json:"station_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

func (h *BlockHandler) createBlock(c *gin.Context) {
	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if req.InstanceID <= 0 || req.StationID <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "instance_id and station_id are required")
		return
	}
	if _, err := domain.CombineDateClock(req.Date, req.StartTime, nil); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "date must be YYYY-MM-DD, times HH:MM")
		return
	}
	startMin, err := domain.ParseClock(req.StartTime)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid start_time")
		return
	}
	endMin, err := domain.ParseClock(req.EndTime)
	if err != nil || endMin <= startMin {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "end_time must be after start_time")
		return
	}

	block := &domain.StationBlock{
		InstanceID: req.InstanceID,
		StationID:  req.StationID,
		Date:       req.Date,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}
	if err := h.blocks.CreateManual(c.Request.Context(), block); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "please try again")
		return
	}
	response.Success(c, http.StatusCreated, block)
}
