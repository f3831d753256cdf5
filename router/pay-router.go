package router

import (
	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/controller"
)

// Stripe calls this without our auth headers; signature verification happens
// in the handler.
func SetPayRouter(router *gin.Engine) {
	payRouter := router.Group("/pay")
	{
		payRouter.POST("/stripe/webhook", controller.StripeCallback)
	}
}
