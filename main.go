package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timera-ai/timera-api/common"
	"github.com/timera-ai/timera-api/common/config"
	"github.com/timera-ai/timera-api/common/logger"
	"github.com/timera-ai/timera-api/middleware"
	"github.com/timera-ai/timera-api/model"
	"github.com/timera-ai/timera-api/router"
)

func renewSubscriptionsLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		err := model.RenewDueSubscriptions()
		if err != nil {
			logger.SysError("subscription renewal failed: " + err.Error())
		}
	}
}

func main() {
	common.Init()
	logger.SetupLogger()
	logger.SysLog(fmt.Sprintf("Timera API %s started", common.Version))
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.DebugEnabled {
		logger.SysLog("running in debug mode")
	}

	var err error
	model.DB, err = model.InitDB("SQL_DSN")
	if err != nil {
		logger.FatalLog("failed to initialize database: " + err.Error())
	}
	defer func() {
		err := model.CloseDB()
		if err != nil {
			logger.FatalLog("failed to close database: " + err.Error())
		}
	}()

	err = common.InitRedisClient()
	if err != nil {
		logger.FatalLog("failed to initialize Redis: " + err.Error())
	}

	if config.StripePaymentEnabled {
		logger.SysLog("Stripe payment enabled")
	}
	if config.ArtifactStoreEnabled {
		logger.SysLog("artifact re-hosting enabled, bucket " + config.ArtifactBucketName)
	}

	common.SafeGoroutine(renewSubscriptionsLoop)

	server := gin.New()
	server.Use(middleware.PanicRecover())
	server.Use(middleware.RequestId())
	middleware.SetUpLogger(server)

	router.SetRouter(server)

	port := os.Getenv("PORT")
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}
	err = server.Run(":" + port)
	if err != nil {
		logger.FatalLog("failed to start HTTP server: " + err.Error())
	}
}
