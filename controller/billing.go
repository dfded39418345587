package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/common/logger"
	"github.com/reelforge/reelforge/model"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/webhook"
)

// StripeWebhook keeps the local subscription columns in sync with Stripe.
// Signature verification is mandatory; an unverifiable event is dropped.
func StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unable to read body"})
		return
	}
	event, err := webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), config.StripeEndpointSecret)
	if err != nil {
		logger.Errorf(c.Request.Context(), "stripe webhook signature verification failed: %s", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid signature"})
		return
	}

	ctx := c.Request.Context()
	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var subscription stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &subscription); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid event payload"})
			return
		}
		user, err := model.GetUserByStripeCustomerId(subscription.Customer.ID)
		if err != nil {
			logger.Warnf(ctx, "stripe customer %s has no local account", subscription.Customer.ID)
			c.JSON(http.StatusOK, gin.H{"success": true, "message": ""})
			return
		}
		plan := "free"
		if len(subscription.Items.Data) > 0 && subscription.Items.Data[0].Price != nil {
			plan = subscription.Items.Data[0].Price.LookupKey
		}
		status := string(subscription.Status)
		if event.Type == "customer.subscription.deleted" {
			plan = "free"
			status = "canceled"
		}
		if err := model.UpdateSubscription(user.Id, plan, status, subscription.CurrentPeriodEnd); err != nil {
			logger.Errorf(ctx, "failed to update subscription for user %d: %s", user.Id, err.Error())
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update subscription"})
			return
		}
		logger.Infof(ctx, "subscription of user %d set to %s (%s)", user.Id, plan, status)
	default:
		logger.Debugf(ctx, "ignoring stripe event %s", event.Type)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": ""})
}
