package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/common/tools"
)

func GetTools(c *gin.Context) {
	c.JSON(http.StatusOK, tools.Catalog)
}
