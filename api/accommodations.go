package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stayfinder/internal/auth"
	"stayfinder/internal/domain"
	"stayfinder/internal/service/accommodation"
)

type AccommodationHandler struct {
	service accommodation.AccommodationUseCase
}

type accommodationRequest struct {
	Type           string   `json:"type" binding:"required"`
	Location       string   `json:"location" binding:"required"`
	Size           string   `json:"size"`
	Amenities      []string `json:"amenities"`
	DailyRateCents int64    `json:"daily_rate_cents" binding:"required"`
	Availability   int      `json:"availability"`
}

type accommodationResponse struct {
	ID             int64    `json:"id"`
	Type           string   `json:"type"`
	Location       string   `json:"location"`
	Size           string   `json:"size"`
	Amenities      []string `json:"amenities"`
	DailyRateCents int64    `json:"daily_rate_cents"`
	Availability   int      `json:"availability"`
}

func NewAccommodationHandler(service accommodation.AccommodationUseCase) *AccommodationHandler {
	return &AccommodationHandler{service: service}
}

func (h *AccommodationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.POST("", auth.RequireRole(domain.UserRoleAdmin), h.create)
	router.PUT("/:id", auth.RequireRole(domain.UserRoleAdmin), h.update)
	router.DELETE("/:id", auth.RequireRole(domain.UserRoleAdmin), h.delete)
}

func (h *AccommodationHandler) list(c *gin.Context) {
	accommodations, err := h.service.List(c.Request.Context(), pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]accommodationResponse, 0, len(accommodations))
	for i := range accommodations {
		out = append(out, toAccommodationResponse(&accommodations[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *AccommodationHandler) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	found, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccommodationResponse(found))
}

func (h *AccommodationHandler) create(c *gin.Context) {
	var req accommodationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.service.Create(c.Request.Context(), auth.UserID(c), toAccommodationInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAccommodationResponse(created))
}

func (h *AccommodationHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req accommodationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.service.Update(c.Request.Context(), id, toAccommodationInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccommodationResponse(updated))
}

func (h *AccommodationHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toAccommodationInput(req accommodationRequest) accommodation.CreateAccommodationInput {
	return accommodation.CreateAccommodationInput{
		Type:           domain.AccommodationType(req.Type),
		Location:       req.Location,
		Size:           req.Size,
		Amenities:      req.Amenities,
		DailyRateCents: req.DailyRateCents,
		Availability:   req.Availability,
	}
}

func toAccommodationResponse(a *domain.Accommodation) accommodationResponse {
	return accommodationResponse{
		ID:             a.ID,
		Type:           string(a.Type),
		Location:       a.Location,
		Size:           a.Size,
		Amenities:      a.Amenities,
		DailyRateCents: a.DailyRateCents,
		Availability:   a.Availability,
	}
}
