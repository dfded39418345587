package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/reelforge/reelforge/common/helper"
	"github.com/reelforge/reelforge/common/logger"
)

func RequestId() func(c *gin.Context) {
	return func(c *gin.Context) {
		// honor a caller-supplied X-Request-Id, generate one otherwise
		id := c.GetHeader(logger.RequestIdKey)
		if id == "" {
			id = helper.GenRequestID()
		}
		c.Set(logger.RequestIdKey, id)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIdKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Request.Header.Set(logger.RequestIdKey, id)
		c.Header(logger.RequestIdKey, id)
		c.Next()
	}
}
