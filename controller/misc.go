package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelforge/reelforge/common"
	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/model"
)

func GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": gin.H{
			"version":        common.Version,
			"start_time":     common.StartTime,
			"system_name":    config.SystemName,
			"server_address": config.ServerAddress,
			"password_login": config.PasswordLoginEnabled,
			"register":       config.RegisterEnabled,
			"clerk_login":    config.ClerkJWTPublicKey != "",
		},
	})
}

// GetHealth is the liveness/readiness probe: process up and database
// reachable.
func GetHealth(c *gin.Context) {
	sqlDB, err := model.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": common.Version,
	})
}
