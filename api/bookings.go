package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"stayfinder/internal/auth"
	"stayfinder/internal/domain"
	"stayfinder/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	CheckInDate     time.Time `json:"check_in_date" binding:"required"`
	CheckOutDate    time.Time `json:"check_out_date" binding:"required"`
	AccommodationID int64     `json:"accommodation_id" binding:"required"`
}

type bookingResponse struct {
	ID              int64  `json:"id"`
	CheckInDate     string `json:"check_in_date"`
	CheckOutDate    string `json:"check_out_date"`
	AccommodationID int64  `json:"accommodation_id"`
	UserID          int64  `json:"user_id"`
	Status          string `json:"status"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", auth.RequireRole(domain.UserRoleUser, domain.UserRoleAdmin), h.create)
	router.GET("", auth.RequireRole(domain.UserRoleAdmin), h.listFiltered)
	router.GET("/my", h.listMine)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), auth.UserID(c), booking.CreateBookingInput{
		CheckInDate:     req.CheckInDate,
		CheckOutDate:    req.CheckOutDate,
		AccommodationID: req.AccommodationID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) listFiltered(c *gin.Context) {
	filter := domain.BookingFilter{}
	for _, raw := range c.QueryArray("user_id") {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		filter.UserIDs = append(filter.UserIDs, id)
	}
	for _, raw := range c.QueryArray("status") {
		filter.Statuses = append(filter.Statuses, domain.BookingStatus(raw))
	}

	bookings, err := h.service.FindAll(c.Request.Context(), filter, pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(bookings))
}

func (h *BookingHandler) listMine(c *gin.Context) {
	bookings, err := h.service.FindAllByUser(c.Request.Context(), auth.UserID(c), pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponses(bookings))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	found, err := h.service.FindByUserAndID(c.Request.Context(), auth.UserID(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateBooking(c.Request.Context(), auth.UserID(c), id, booking.CreateBookingInput{
		CheckInDate:     req.CheckInDate,
		CheckOutDate:    req.CheckOutDate,
		AccommodationID: req.AccommodationID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		return
	}
	if err := h.service.CancelBooking(c.Request.Context(), auth.UserID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		CheckInDate:     b.CheckInDate.Format(time.RFC3339),
		CheckOutDate:    b.CheckOutDate.Format(time.RFC3339),
		AccommodationID: b.AccommodationID,
		UserID:          b.UserID,
		Status:          string(b.Status),
	}
}

func toBookingResponses(bookings []domain.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResponse(&bookings[i]))
	}
	return out
}

func pageFromQuery(c *gin.Context) domain.Page {
	number, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	return domain.Page{Number: number, Size: size}
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, err
	}
	return id, nil
}
