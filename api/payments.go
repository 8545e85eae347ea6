package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stayfinder/internal/auth"
	"stayfinder/internal/domain"
	"stayfinder/internal/service/payment"
)

type PaymentHandler struct {
	service payment.PaymentUseCase
}

type createSessionRequest struct {
	BookingID int64 `json:"booking_id" binding:"required"`
}

type paymentResponse struct {
	ID          int64  `json:"id"`
	BookingID   int64  `json:"booking_id"`
	SessionID   string `json:"session_id,omitempty"`
	SessionURL  string `json:"session_url,omitempty"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
}

func NewPaymentHandler(service payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.GET("", auth.RequireRole(domain.UserRoleAdmin), h.listByUser)
	router.POST("", auth.RequireRole(domain.UserRoleUser, domain.UserRoleAdmin), h.createSession)
	router.GET("/success", h.success)
	router.GET("/cancel", h.cancel)
}

func (h *PaymentHandler) listByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	payments, err := h.service.FindAllByUser(c.Request.Context(), userID, pageFromQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		p := toPaymentResponse(&payments[i])
		// Session internals stay private on the listing endpoint.
		p.SessionID = ""
		p.SessionURL = ""
		out = append(out, p)
	}
	c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := h.service.CreateSession(c.Request.Context(), req.BookingID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(created))
}

func (h *PaymentHandler) success(c *gin.Context) {
	sessionID := c.Query("session_id")
	processed, err := h.service.ProcessSuccess(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := toPaymentResponse(processed)
	resp.SessionID = ""
	resp.SessionURL = ""
	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) cancel(c *gin.Context) {
	sessionID := c.Query("session_id")
	if _, err := h.service.ProcessCancel(c.Request.Context(), sessionID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("The payment for session ID '%s' has been canceled and can be made later.", sessionID),
	})
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:          p.ID,
		BookingID:   p.BookingID,
		SessionID:   p.SessionID,
		SessionURL:  p.SessionURL,
		AmountCents: p.AmountCents,
		Status:      string(p.Status),
	}
}
