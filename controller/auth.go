package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/model"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=64"`
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

func tokenPair(user *model.User) (gin.H, error) {
	access, err := common.GenerateAccessToken(user.Id, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := common.GenerateRefreshToken(user.Id, user.Role)
	if err != nil {
		return nil, err
	}
	return gin.H{"access": access, "refresh": refresh}, nil
}

func profilePayload(user *model.User, balance *model.Balance) gin.H {
	return gin.H{
		"id":                user.Id,
		"email":             user.Email,
		"credits":           balance.Credits,
		"held_credits":      balance.HeldCredits,
		"available_credits": balance.AvailableCredits,
		"language":          user.Language,
		"theme":             user.Theme,
	}
}

func Register(c *gin.Context) {
	if !config.RegisterEnabled {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Registration is disabled",
		})
		return
	}
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	user := model.User{
		Email:    req.Email,
		Password: req.Password,
		Status:   common.UserStatusEnabled,
		Role:     common.RoleCommonUser,
	}
	if req.Language != "" {
		user.Language = req.Language
	}
	if req.Theme != "" {
		user.Theme = req.Theme
	}
	if err := user.Insert(); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	tokens, err := tokenPair(&user)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	balance, err := model.GetUserBalance(user.Id)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   profilePayload(&user, balance),
		"tokens": tokens,
	})
}

func Login(c *gin.Context) {
	if !config.PasswordLoginEnabled {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Password login is disabled",
		})
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	user := model.User{
		Email:    req.Email,
		Password: req.Password,
	}
	if err := user.ValidateAndFill(); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	tokens, err := tokenPair(&user)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	balance, err := model.GetUserBalance(user.Id)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   profilePayload(&user, balance),
		"tokens": tokens,
	})
}

// RefreshToken mints a fresh access token from a valid refresh token. One
// failed refresh means the session is over; there is nothing to loop on.
func RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	claims, err := common.ParseToken(req.Refresh, common.TokenTypeRefresh)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Refresh token is invalid or expired",
		})
		return
	}
	access, err := common.GenerateAccessToken(claims.UserId, claims.Role)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access": access})
}

// GetProfile answers the authoritative credit triple alongside the account
// fields. This is the endpoint the client reconciles against.
func GetProfile(c *gin.Context) {
	userId := c.GetInt("id")
	user, err := model.GetUserById(userId)
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
	c.JSON(http.StatusOK, profilePayload(user, balance))
}

type UpdateProfileRequest struct {
	Language string `json:"language"`
	Theme    string `json:"theme"`
}

func UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	userId := c.GetInt("id")
	user, err := model.GetUserById(userId)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}
	if req.Language != "" {
		user.Language = req.Language
	}
	if req.Theme != "" {
		user.Theme = req.Theme
	}
	if err := user.Update(); err != nil {
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
	c.JSON(http.StatusOK, profilePayload(user, balance))
}
