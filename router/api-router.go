package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/controller"
	"github.com/timera-ai/timera-api/middleware"
)

func SetApiRouter(router *gin.Engine) {
	router.Use(middleware.CORS())
	apiRouter := router.Group("/api")
	apiRouter.Use(gzip.Gzip(gzip.DefaultCompression))
	apiRouter.Use(middleware.GlobalAPIRateLimit())
	{
		apiRouter.GET("/status", controller.GetStatus)
		apiRouter.GET("/tools", controller.GetTools)

		apiRouter.POST("/register", middleware.CriticalRateLimit(), controller.Register)
		apiRouter.POST("/login", middleware.CriticalRateLimit(), controller.Login)
		apiRouter.POST("/token/refresh", middleware.CriticalRateLimit(), controller.RefreshToken)

		selfRoute := apiRouter.Group("/")
		selfRoute.Use(middleware.UserAuth())
		{
			selfRoute.GET("/profile", controller.GetProfile)
			selfRoute.PATCH("/profile/update", controller.UpdateProfile)

			selfRoute.POST("/videos/generate", controller.GenerateVideo)
			selfRoute.GET("/videos", controller.GetUserVideos)
			selfRoute.GET("/videos/:id", controller.GetUserVideo)

			selfRoute.POST("/images/generate", controller.GenerateImage)
			selfRoute.GET("/images", controller.GetUserImages)
			selfRoute.GET("/images/:id", controller.GetUserImage)

			selfRoute.GET("/jobs/watch", controller.WatchJobs)

			selfRoute.GET("/topup/packages", controller.GetTopupPackages)
			selfRoute.POST("/topup/create", controller.CreateTopup)
			selfRoute.POST("/topup/complete", controller.CompleteTopup)
			selfRoute.GET("/topup/history", controller.GetTopupHistory)

			selfRoute.GET("/subscriptions/plans", controller.GetSubscriptionPlans)
			selfRoute.POST("/subscriptions/create", controller.CreateSubscription)
			selfRoute.GET("/subscriptions/info", controller.GetSubscriptionInfo)
			selfRoute.POST("/subscriptions/cancel", controller.CancelSubscription)
		}

		adminRoute := apiRouter.Group("/admin")
		adminRoute.Use(middleware.AdminAuth())
		{
			adminRoute.POST("/users/:id/credits", controller.AdminGrantCredits)
			adminRoute.PATCH("/users/:id/status", controller.AdminUpdateUserStatus)
		}
	}
}
