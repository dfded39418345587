package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reelforge/reelforge/common"
	"github.com/reelforge/reelforge/common/logger"
	"github.com/reelforge/reelforge/model"
	"github.com/reelforge/reelforge/pipeline"
	"github.com/reelforge/reelforge/pipeline/validation"
)

var generator *pipeline.Generator

// InitGenerator wires the production pipeline once at startup.
func InitGenerator() error {
	g, err := pipeline.NewGenerator()
	if err != nil {
		return err
	}
	generator = g
	return nil
}

// SubmitGeneration validates the request body and enqueues the video
// pipeline. Validation failures return the whole error list at once, so a
// client never has to fix fields one round trip at a time.
func SubmitGeneration(c *gin.Context) {
	var body map[string]any
	if err := common.UnmarshalBodyReusable(c, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body: " + err.Error(),
		})
		return
	}

	payload, fieldErrors := validation.Validate(body)
	if len(fieldErrors) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": fieldErrors[0].Message,
			"errors":  fieldErrors,
		})
		return
	}

	userId := c.GetInt("id")
	result, err := generator.Submit(c.Request.Context(), userId, payload)
	if err != nil {
		logger.Errorf(c.Request.Context(), "failed to enqueue generation: %s", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to enqueue generation request",
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "",
		"data":    result,
	})
}

// GetGeneration is the polling endpoint. The answer layers the pipeline
// status with the render outcome: a request is "done" only when it is
// submitted and its render succeeded.
func GetGeneration(c *gin.Context) {
	id := c.Param("id")
	request, err := model.GetGenerationRequestById(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	if request.UserId != c.GetInt("id") && !model.IsAdmin(c.GetInt("id")) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "No permission to view this generation request",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data":    request,
	})
}

func GetUserGenerations(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pagesize, _ := strconv.Atoi(c.Query("pagesize"))
	if pagesize < 1 {
		pagesize = 10
	}
	startTimestamp, _ := strconv.ParseInt(c.Query("start_timestamp"), 10, 64)
	endTimestamp, _ := strconv.ParseInt(c.Query("end_timestamp"), 10, 64)
	status := c.Query("status")
	userId := c.GetInt("id")

	requests, total, err := model.GetUserGenerationsAndCount(userId, startTimestamp, endTimestamp, status, page, pagesize)
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
			"list":        requests,
			"currentPage": page,
			"pageSize":    pagesize,
			"total":       total,
		},
	})
}

// GetGenerationScript returns the stored script of a submitted request.
func GetGenerationScript(c *gin.Context) {
	id := c.Param("id")
	request, err := model.GetGenerationRequestById(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	if request.UserId != c.GetInt("id") && !model.IsAdmin(c.GetInt("id")) {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "No permission to view this generation request",
		})
		return
	}
	if request.ScriptId == "" {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Script is not available yet",
		})
		return
	}
	script, err := model.GetScriptById(request.ScriptId)
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
		"data":    script,
	})
}
