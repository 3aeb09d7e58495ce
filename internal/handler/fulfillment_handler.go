package handler

import (
	"errors"
	"net/http"

	"warsha/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type FulfillmentHandler struct {
	svc *service.PaymentService
	log *zap.SugaredLogger
}

func NewFulfillmentHandler(svc *service.PaymentService, log *zap.SugaredLogger) *FulfillmentHandler {
	return &FulfillmentHandler{svc: svc, log: log}
}

// Fulfill sends the receipt for a settled payment. Safe to retry: an
// already-dispatched record short-circuits.
func (h *FulfillmentHandler) Fulfill(c *gin.Context) {
	var req struct {
		MerchantOrderID string `json:"merchantOrderId"`
		SessionID       string `json:"sessionId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.MerchantOrderID == "" && req.SessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merchantOrderId or sessionId required"})
		return
	}
	res, err := h.svc.Fulfill(c.Request.Context(), req.MerchantOrderID, req.SessionID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		var notOK *service.NotSuccessfulError
		if errors.As(err, &notOK) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment not successful", "status": notOK.Status})
			return
		}
		if errors.Is(err, service.ErrReceiptDispatch) {
			h.log.Errorf("[FULFILL] dispatch failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "receipt dispatch failed"})
			return
		}
		h.log.Errorf("[FULFILL] verification failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":              true,
		"status":          res.Status,
		"receiptSent":     res.ReceiptSent,
		"receiptResponse": res.ReceiptResponse,
	})
}
