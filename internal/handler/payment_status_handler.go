package handler

import (
	"errors"
	"net/http"

	"warsha/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentStatusHandler struct {
	svc *service.PaymentService
	log *zap.SugaredLogger
}

func NewPaymentStatusHandler(svc *service.PaymentService, log *zap.SugaredLogger) *PaymentStatusHandler {
	return &PaymentStatusHandler{svc: svc, log: log}
}

// Status answers an on-demand status poll by merchantOrderId or sessionId.
func (h *PaymentStatusHandler) Status(c *gin.Context) {
	merchantOrderID := c.Query("merchantOrderId")
	sessionID := c.Query("sessionId")
	if merchantOrderID == "" && sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merchantOrderId or sessionId required"})
		return
	}
	res, err := h.svc.Status(c.Request.Context(), merchantOrderID, sessionID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		h.log.Errorf("[STATUS] verification failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": res.Status, "verified": res.Verified, "payment": res.Payment})
}
