package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/common/logger"
	"github.com/timera-ai/timera-api/model"
)

func GetTopupPackages(c *gin.Context) {
	c.JSON(http.StatusOK, model.TopupPackages)
}

type CreateTopupRequest struct {
	Package   string `json:"package" binding:"required"`
	PaymentId string `json:"payment_id"`
}

// CreateTopup opens a purchase order. With Stripe enabled the response
// carries a checkout URL and the order is settled by webhook; without it
// (dev mode) the order settles immediately and the response embeds the
// resulting balance.
func CreateTopup(c *gin.Context) {
	var req CreateTopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	userId := c.GetInt("id")
	order, checkoutUrl, err := model.CreateTopupOrder(userId, req.Package, req.PaymentId)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	if config.StripePaymentEnabled {
		c.JSON(http.StatusOK, gin.H{
			"purchase_id":  order.Id,
			"checkout_url": checkoutUrl,
			"status":       order.Status,
		})
		return
	}

	// no payment provider configured, settle right away
	order, err = model.CompleteTopupOrder(order.Id, userId, req.PaymentId)
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
		"purchase_id":       order.Id,
		"user_credits":      balance.Credits,
		"credits_purchased": order.Credits,
		"total_credits":     order.Credits,
	})
}

type CompleteTopupRequest struct {
	PurchaseId int    `json:"purchase_id" binding:"required"`
	PaymentId  string `json:"payment_id"`
}

func CompleteTopup(c *gin.Context) {
	var req CompleteTopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	userId := c.GetInt("id")
	order, err := model.CompleteTopupOrder(req.PurchaseId, userId, req.PaymentId)
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
		"user_credits":      balance.Credits,
		"credits_purchased": order.Credits,
		"total_credits":     order.Credits,
	})
}

func GetTopupHistory(c *gin.Context) {
	userId := c.GetInt("id")
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pagesize"))
	if pageSize <= 0 {
		pageSize = config.ItemsPerPage * 10
	}
	orders, err := model.GetUserTopupOrders(userId, page*pageSize, pageSize)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func StripeCallback(c *gin.Context) {
	err := model.HandleStripeCallback(c.Request)
	if err != nil {
		logger.Errorf(c.Request.Context(), "stripe callback failed: %s", err.Error())
		c.String(http.StatusBadRequest, "fail")
		return
	}
	c.String(http.StatusOK, "ok")
}
