package handler

import (
	"encoding/json"
	"net/http"

	"warsha/internal/models"
	"warsha/pkg/appsscript"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegistrationStore persists best-effort bookkeeping rows for forwarded
// registrations.
type RegistrationStore interface {
	Create(reg *models.Registration) error
}

type RegistrationHandler struct {
	auto    *appsscript.Client
	regRepo RegistrationStore
	log     *zap.SugaredLogger
}

func NewRegistrationHandler(auto *appsscript.Client, regRepo RegistrationStore, log *zap.SugaredLogger) *RegistrationHandler {
	return &RegistrationHandler{auto: auto, regRepo: regRepo, log: log}
}

// Register forwards a workshop registration to the email automation. The
// automation owns the submission; the local row is best-effort bookkeeping.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req struct {
		WorkshopID   string `json:"workshopId"`
		Name         string `json:"name"`
		Email        string `json:"email"`
		Phone        string `json:"phone"`
		Age          int    `json:"age"`
		Governorate  string `json:"governorate"`
		ProgramTitle string `json:"program_title"`
		GroupLink    string `json:"group_link"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" {
		c.String(http.StatusBadRequest, "name and email are required")
		return
	}
	if !h.auto.Configured() {
		c.String(http.StatusInternalServerError, "registration automation not configured")
		return
	}
	payload := map[string]interface{}{
		"workshopId":  req.WorkshopID,
		"name":        req.Name,
		"email":       req.Email,
		"phone":       req.Phone,
		"age":         req.Age,
		"governorate": req.Governorate,
	}
	if req.ProgramTitle != "" {
		payload["program_title"] = req.ProgramTitle
	}
	if req.GroupLink != "" {
		payload["group_link"] = req.GroupLink
	}
	respBody, err := h.auto.Forward(c.Request.Context(), payload)

	reg := &models.Registration{
		WorkshopID:  req.WorkshopID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Age:         req.Age,
		Governorate: req.Governorate,
		Forwarded:   err == nil,
	}
	if err != nil {
		reg.Error = err.Error()
	}
	if dbErr := h.regRepo.Create(reg); dbErr != nil {
		h.log.Errorf("[REGISTER] bookkeeping row failed email=%s: %v", req.Email, dbErr)
	}

	if err != nil {
		h.log.Errorf("[REGISTER] forward failed email=%s: %v", req.Email, err)
		c.String(http.StatusBadGateway, "registration automation error")
		return
	}
	var data interface{}
	if json.Unmarshal(respBody, &data) != nil {
		data = string(respBody)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
