package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/common/helper"
)

func GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "",
		"data": gin.H{
			"version":     common.Version,
			"system_name": config.SystemName,
			"start_time":  startTime,
			"server_time": helper.GetTimestamp(),
		},
	})
}

var startTime = helper.GetTimestamp()
