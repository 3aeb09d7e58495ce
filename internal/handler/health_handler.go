package handler

import (
	"net/http"

	"warsha/pkg/appsscript"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	auto *appsscript.Client
}

func NewHealthHandler(auto *appsscript.Client) *HealthHandler {
	return &HealthHandler{auto: auto}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "appsScriptConfigured": h.auto.Configured()})
}
