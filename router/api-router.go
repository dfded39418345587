package router

import (
	"github.com/reelforge/reelforge/controller"
	"github.com/reelforge/reelforge/middleware"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

func SetApiRouter(router *gin.Engine) {
	router.Use(middleware.CORS())
	apiRouter := router.Group("/api")
	apiRouter.Use(gzip.Gzip(gzip.DefaultCompression))
	apiRouter.Use(middleware.GlobalAPIRateLimit())
	{
		apiRouter.GET("/status", controller.GetStatus)
		apiRouter.GET("/health", controller.GetHealth)

		// webhooks authenticate by secret, never by session
		apiRouter.POST("/webhook/render", controller.RenderCallback)
		apiRouter.POST("/webhook/stripe", controller.StripeWebhook)

		userRoute := apiRouter.Group("/user")
		{
			userRoute.POST("/register", middleware.CriticalRateLimit(), controller.Register)
			userRoute.POST("/login", middleware.CriticalRateLimit(), controller.Login)
			userRoute.GET("/logout", controller.Logout)

			selfRoute := userRoute.Group("/")
			selfRoute.Use(middleware.UserAuth())
			{
				selfRoute.GET("/self", controller.GetSelf)
				selfRoute.PUT("/self", controller.UpdateSelf)
				selfRoute.GET("/token", controller.GenerateAccessToken)
			}

			adminRoute := userRoute.Group("/")
			adminRoute.Use(middleware.AdminAuth())
			{
				adminRoute.GET("/:id", controller.GetUser)
				adminRoute.POST("/manage", controller.ManageUser)
			}
		}

		optionRoute := apiRouter.Group("/option")
		optionRoute.Use(middleware.RootAuth())
		{
			optionRoute.GET("/", controller.GetOptions)
			optionRoute.PUT("/", controller.UpdateOption)
		}

		generationRoute := apiRouter.Group("/generation")
		generationRoute.Use(middleware.UserAuth())
		{
			generationRoute.POST("/", controller.SubmitGeneration)
			generationRoute.GET("/", controller.GetUserGenerations)
			generationRoute.GET("/:id", controller.GetGeneration)
			generationRoute.GET("/:id/script", controller.GetGenerationScript)
		}

		clipRoute := apiRouter.Group("/clip")
		clipRoute.Use(middleware.UserAuth())
		{
			clipRoute.POST("/", controller.CreateClip)
			clipRoute.GET("/", controller.GetUserClips)
			clipRoute.GET("/:id", controller.GetClip)
			clipRoute.PUT("/:id", controller.UpdateClip)
			clipRoute.DELETE("/:id", controller.DeleteClip)
		}

		chatRoute := apiRouter.Group("/chat")
		chatRoute.Use(middleware.UserAuth())
		{
			chatRoute.POST("/draft", controller.ChatDraftMessage)
			chatRoute.GET("/draft", controller.GetUserChatDrafts)
			chatRoute.GET("/draft/:id", controller.GetChatDraft)
			chatRoute.GET("/stream", controller.ChatDraftStream)
		}

		usageRoute := apiRouter.Group("/usage")
		usageRoute.Use(middleware.UserAuth())
		{
			usageRoute.GET("/", controller.GetUserUsageLogs)
			usageRoute.GET("/stat", controller.GetUserUsageStat)
		}
	}
}
