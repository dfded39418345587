package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reelforge/reelforge/model"
)

func GetOptions(c *gin.Context) {
	var options []*model.Option
	all, err := model.AllOption()
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	for _, option := range all {
		if strings.Contains(option.Key, "Secret") || strings.Contains(option.Key, "Key") {
			continue
		}
		options = append(options, option)
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    options,
	})
}

func UpdateOption(c *gin.Context) {
	var option model.Option
	if err := c.ShouldBindJSON(&option); err != nil || option.Key == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid parameter",
		})
		return
	}
	if err := model.UpdateOption(option.Key, option.Value); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
	})
}
