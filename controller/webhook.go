package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/common/logger"
	"github.com/reelforge/reelforge/model"
	"github.com/reelforge/reelforge/pipeline/creatomate"
)

// authorizeRenderCallback checks that a webhook event may touch the request
// it names: the metadata's correlation ids must match the stored record and
// the render id must be the one the pipeline submitted.
func authorizeRenderCallback(event *creatomate.WebhookEvent, meta *creatomate.Metadata, request *model.GenerationRequest) error {
	if meta.RequestId != request.Id {
		return fmt.Errorf("metadata request id %s does not match record %s", meta.RequestId, request.Id)
	}
	if meta.UserId != request.UserId {
		return fmt.Errorf("metadata user id %d does not match record owner %d", meta.UserId, request.UserId)
	}
	if event.Id != request.RenderId {
		return fmt.Errorf("render id %s does not match submitted render %s", event.Id, request.RenderId)
	}
	return nil
}

// RenderCallback receives the renderer's completion webhook. Non-terminal
// statuses are acknowledged and ignored; terminal ones are applied through
// the guarded outcome write so a replayed webhook is a no-op.
func RenderCallback(c *gin.Context) {
	if config.CreatomateWebhookSecret != "" &&
		c.GetHeader("X-Webhook-Secret") != config.CreatomateWebhookSecret {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Invalid webhook secret",
		})
		return
	}

	var event creatomate.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid webhook body: " + err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	if event.Status != creatomate.RenderStatusSucceeded && event.Status != creatomate.RenderStatusFailed {
		logger.Infof(ctx, "ignoring non-terminal render status %s for render %s", event.Status, event.Id)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": ""})
		return
	}

	meta, err := event.DecodeMetadata()
	if err != nil {
		logger.Errorf(ctx, "render webhook %s has invalid metadata: %s", event.Id, err.Error())
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid webhook metadata",
		})
		return
	}
	request, err := model.GetGenerationRequestByRenderId(event.Id)
	if err != nil {
		logger.Errorf(ctx, "render webhook %s matches no generation request: %s", event.Id, err.Error())
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Unknown render",
		})
		return
	}
	if err := authorizeRenderCallback(&event, meta, request); err != nil {
		logger.Errorf(ctx, "render webhook %s rejected: %s", event.Id, err.Error())
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "Webhook does not match the generation request",
		})
		return
	}

	renderStatus := model.RenderStatusSucceeded
	if event.Status == creatomate.RenderStatusFailed {
		renderStatus = model.RenderStatusFailed
	}
	applied, err := model.ApplyRenderOutcome(request.Id, renderStatus, event.Url, event.ErrorMessage)
	if err != nil {
		logger.Errorf(ctx, "failed to apply render outcome for %s: %s", request.Id, err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to record render outcome",
		})
		return
	}
	if !applied {
		// already recorded, or the request never reached submitted state
		logger.Warnf(ctx, "render outcome for %s not applied, request state does not accept it", request.Id)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": ""})
		return
	}

	if renderStatus == model.RenderStatusSucceeded {
		if err := model.AddUserUsage(request.UserId, 1, 0); err != nil {
			logger.Errorf(ctx, "failed to bump render usage for user %d: %s", request.UserId, err.Error())
		}
		model.RecordUsageLog(ctx, request.UserId, model.UsageTypeRender, request.Id, "creatomate",
			0, 0, 1, "video render completed")
	}
	logger.Infof(ctx, "render outcome %s recorded for generation request %s", renderStatus, request.Id)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": ""})
}
