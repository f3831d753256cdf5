package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/model"
)

func authHelper(c *gin.Context, minRole int) {
	accessToken := c.Request.Header.Get("Authorization")
	accessToken = strings.TrimPrefix(accessToken, "Bearer ")
	if accessToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Not authorized for this operation, no access token provided",
		})
		c.Abort()
		return
	}
	claims, err := common.ParseToken(accessToken, common.TokenTypeAccess)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "Not authorized to perform this operation, access token is invalid",
		})
		c.Abort()
		return
	}
	userEnabled, err := model.CacheIsUserEnabled(claims.UserId)
	if err != nil {
		abortWithMessage(c, http.StatusInternalServerError, err.Error())
		return
	}
	if !userEnabled {
		abortWithMessage(c, http.StatusForbidden, "User has been banned")
		return
	}
	if claims.Role < minRole {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "You do not have permission to perform this operation. Insufficient permissions.",
		})
		c.Abort()
		return
	}
	c.Set("id", claims.UserId)
	c.Set("role", claims.Role)
	c.Next()
}

func UserAuth() func(c *gin.Context) {
	return func(c *gin.Context) {
		authHelper(c, common.RoleCommonUser)
	}
}

func AdminAuth() func(c *gin.Context) {
	return func(c *gin.Context) {
		authHelper(c, common.RoleAdminUser)
	}
}
