package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/model"
)

func GetSubscriptionPlans(c *gin.Context) {
	c.JSON(http.StatusOK, model.SubscriptionPlans)
}

type CreateSubscriptionRequest struct {
	Plan      string `json:"plan" binding:"required"`
	AutoRenew *bool  `json:"auto_renew"`
}

func CreateSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	autoRenew := true
	if req.AutoRenew != nil {
		autoRenew = *req.AutoRenew
	}
	userId := c.GetInt("id")
	sub, err := model.CreateSubscription(userId, req.Plan, autoRenew)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	balance, err := model.CacheGetUserBalance(userId)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subscription": sub,
		"user_credits": balance.Credits,
	})
}

func GetSubscriptionInfo(c *gin.Context) {
	userId := c.GetInt("id")
	sub, err := model.GetActiveSubscription(userId)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"subscription": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func CancelSubscription(c *gin.Context) {
	userId := c.GetInt("id")
	err := model.CancelSubscription(userId)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	sub, err := model.GetActiveSubscription(userId)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}
