package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/improvgroup/uniteller-payments/web/settings"
)

// ConfigureHandler serves the admin settings endpoints for the payment
// method, scoped per store via the store_id query parameter.
type ConfigureHandler struct {
	Settings *settings.Service
}

func storeScope(c *gin.Context) (uint, bool) {
	raw := c.DefaultQuery("store_id", "0")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid store_id"})
		return 0, false
	}
	return uint(id), true
}

func (h *ConfigureHandler) Get(c *gin.Context) {
	storeID, ok := storeScope(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Settings.GetUnitellerModel(storeID))
}

func (h *ConfigureHandler) Save(c *gin.Context) {
	storeID, ok := storeScope(c)
	if !ok {
		return
	}

	var model settings.ConfigurationModel
	if err := c.BindJSON(&model); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.Settings.SaveUniteller(storeID, model); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
