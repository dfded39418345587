package router

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/reelforge/reelforge/common/logger"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func SetRouter(router *gin.Engine) {
	SetApiRouter(router)

	// Swagger UI, pointing at the externally hosted API document
	swaggerURL := os.Getenv("SWAGGER_JSON_URL")
	if swaggerURL != "" {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(
			swaggerFiles.Handler,
			ginSwagger.URL(swaggerURL),
		))
		logger.SysLog(fmt.Sprintf("Swagger UI enabled at /swagger/index.html (doc: %s)", swaggerURL))
	}
}
