package handler

import (
	"errors"
	"io"
	"net/http"

	"warsha/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentWebhookHandler struct {
	svc *service.PaymentService
	log *zap.SugaredLogger
}

func NewPaymentWebhookHandler(svc *service.PaymentService, log *zap.SugaredLogger) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{svc: svc, log: log}
}

// Handle processes a gateway notification. The body's status claims are never
// trusted; reconciliation re-verifies with the gateway before writing. A
// failed payment is still a reconciled payment, so the response is 200.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	h.log.Infof("[WEBHOOK] raw body: %s", string(body))
	if err := h.svc.Reconcile(c.Request.Context(), body); err != nil {
		if errors.Is(err, service.ErrUnreconcilable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no session identifier resolvable from notification"})
			return
		}
		h.log.Errorf("[WEBHOOK] verification failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}
	c.String(http.StatusOK, "OK")
}
