package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/reelforge/reelforge/common/helper"
	"github.com/reelforge/reelforge/model"
)

// computeEngagementRate is the analysis-side engagement metric:
// interactions per view.
func computeEngagementRate(clip *model.Clip) float64 {
	if clip.Views == 0 {
		return 0
	}
	return float64(clip.Likes+clip.Comments+clip.Shares) / float64(clip.Views)
}

// CreateClip imports one clip into the user's library, typically from the
// TikTok analysis flow.
func CreateClip(c *gin.Context) {
	var clip model.Clip
	if err := c.ShouldBindJSON(&clip); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid parameters",
		})
		return
	}
	if strings.TrimSpace(clip.Title) == "" || clip.Url == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Clip title and url are required",
		})
		return
	}
	if clip.Duration < 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Clip duration must not be negative",
		})
		return
	}
	clip.Id = helper.GetUUID()
	clip.UserId = c.GetInt("id")
	clip.CreatedAt = helper.GetTimestamp()
	if clip.Source == "" {
		clip.Source = "tiktok"
	}
	clip.EngagementRate = computeEngagementRate(&clip)
	if err := clip.Insert(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    clip,
	})
}

func GetClip(c *gin.Context) {
	clip, err := model.GetClipById(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	if clip.UserId != c.GetInt("id") && !model.IsAdmin(c.GetInt("id")) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "No permission to view this clip",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    clip,
	})
}

func GetUserClips(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pagesize, _ := strconv.Atoi(c.Query("pagesize"))
	if pagesize < 1 {
		pagesize = 10
	}
	keyword := c.Query("keyword")

	clips, total, err := model.GetUserClipsAndCount(c.GetInt("id"), keyword, page, pagesize)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": gin.H{
			"list":        clips,
			"currentPage": page,
			"pageSize":    pagesize,
			"total":       total,
		},
	})
}

func UpdateClip(c *gin.Context) {
	existing, err := model.GetClipById(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	if existing.UserId != c.GetInt("id") {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "No permission to update this clip",
		})
		return
	}
	var clip model.Clip
	if err := c.ShouldBindJSON(&clip); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid parameters",
		})
		return
	}
	clip.Id = existing.Id
	clip.UserId = existing.UserId
	clip.CreatedAt = existing.CreatedAt
	clip.EngagementRate = computeEngagementRate(&clip)
	if err := clip.Update(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    clip,
	})
}

func DeleteClip(c *gin.Context) {
	if err := model.DeleteClipById(c.Param("id"), c.GetInt("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
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
