package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"warsha/internal/service"
	"warsha/pkg/gateway"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	svc *service.PaymentService
	log *zap.SugaredLogger
}

func NewPaymentHandler(svc *service.PaymentService, log *zap.SugaredLogger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

// CreateSession validates the payment request, opens a gateway session and
// returns the hosted checkout URL.
func (h *PaymentHandler) CreateSession(c *gin.Context) {
	var req struct {
		Amount            interface{}            `json:"amount"`
		Currency          string                 `json:"currency"`
		Order             string                 `json:"order"`
		MerchantRedirect  string                 `json:"merchantRedirect"`
		Description       string                 `json:"description"`
		CustomerEmail     string                 `json:"customerEmail"`
		CustomerReference string                 `json:"customerReference"`
		MetaData          map[string]interface{} `json:"metaData"`
		Age               int                    `json:"age"`
		User              map[string]interface{} `json:"user"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	amount, ok := coerceAmount(req.Amount)
	if !ok || amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number"})
		return
	}
	if req.MerchantRedirect == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "merchantRedirect is required"})
		return
	}
	res, err := h.svc.CreateSession(c.Request.Context(), service.CreateSessionInput{
		Amount:            amount,
		Currency:          req.Currency,
		Order:             req.Order,
		MerchantRedirect:  req.MerchantRedirect,
		Description:       req.Description,
		CustomerEmail:     req.CustomerEmail,
		CustomerReference: req.CustomerReference,
		MetaData:          req.MetaData,
		Age:               req.Age,
		User:              req.User,
	})
	if err != nil {
		var gwErr *gateway.GatewayError
		if errors.As(err, &gwErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment gateway rejected the request", "details": gwErr.Body})
			return
		}
		h.log.Errorf("[SESSION] create failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session creation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "sessionUrl": res.SessionURL, "raw": res.Raw})
}

// coerceAmount accepts both JSON numbers and quoted numeric strings;
// checkout clients send either form.
func coerceAmount(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
