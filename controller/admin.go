package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/model"
)

type GrantCreditsRequest struct {
	Credits int    `json:"credits" binding:"required,gt=0"`
	Reason  string `json:"reason"`
}

// AdminGrantCredits adds credits to an account outside the payment flow,
// e.g. support compensation. Goes through the same ledger entry point as
// top-ups so holds are unaffected.
func AdminGrantCredits(c *gin.Context) {
	var req GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	userId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid user id",
		})
		return
	}
	if err := model.IncreaseUserCredits(userId, req.Credits); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	balance, err := model.GetUserBalance(userId)
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
			"credits":           balance.Credits,
			"held_credits":      balance.HeldCredits,
			"available_credits": balance.AvailableCredits,
		},
	})
}

type UpdateUserStatusRequest struct {
	Status int `json:"status" binding:"required,oneof=1 2"`
}

func AdminUpdateUserStatus(c *gin.Context) {
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	userId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "invalid user id",
		})
		return
	}
	if err := model.UpdateUserStatus(userId, req.Status); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
	})
}
