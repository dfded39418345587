package main

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/reelforge/reelforge/common"
	"github.com/reelforge/reelforge/common/config"
	"github.com/reelforge/reelforge/common/logger"
	"github.com/reelforge/reelforge/controller"
	"github.com/reelforge/reelforge/middleware"
	"github.com/reelforge/reelforge/model"
	"github.com/reelforge/reelforge/pipeline/llm"
	"github.com/reelforge/reelforge/router"
)

// monitorGoroutines keeps an eye on goroutine growth: pipeline stages run on
// a shared pool and a leak shows up here first.
func monitorGoroutines() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		count := runtime.NumGoroutine()
		if count > 5000 {
			logger.SysError(fmt.Sprintf("high goroutine count detected: %d", count))
		} else if count > 2000 {
			logger.SysLog(fmt.Sprintf("goroutine count elevated: %d", count))
		} else if config.DebugEnabled {
			logger.SysLog(fmt.Sprintf("goroutine count: %d", count))
		}

		if config.DebugEnabled {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			logger.SysLog(fmt.Sprintf("Memory: Alloc=%dMB, TotalAlloc=%dMB, Sys=%dMB, NumGC=%d",
				m.Alloc/1024/1024, m.TotalAlloc/1024/1024, m.Sys/1024/1024, m.NumGC))
		}
	}
}

func setupMonitoringEndpoints(server *gin.Engine) {
	server.GET("/api/monitor/health", func(c *gin.Context) {
		count := runtime.NumGoroutine()
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(200, gin.H{
			"status":     "ok",
			"goroutines": count,
			"memory": gin.H{
				"alloc_mb":       m.Alloc / 1024 / 1024,
				"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
				"sys_mb":         m.Sys / 1024 / 1024,
				"num_gc":         m.NumGC,
			},
		})
	})

	logger.SysLog("monitoring endpoints enabled at /api/monitor/health")
}

func main() {
	common.Init()
	logger.SetupLogger()
	logger.SysLog(fmt.Sprintf("ReelForge %s started", common.Version))
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
	err = model.CreateRootAccountIfNeed()
	if err != nil {
		logger.FatalLog("database init error: " + err.Error())
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

	model.InitOptionMap()
	if config.MemoryCacheEnabled {
		logger.SysLog("memory cache enabled")
		go model.SyncOptions(config.SyncFrequency)
	}

	llm.InitTokenEncoder()
	if err := controller.InitGenerator(); err != nil {
		logger.FatalLog("failed to initialize generation pipeline: " + err.Error())
	}

	go monitorGoroutines()

	server := gin.New()
	server.Use(gin.Recovery())
	server.Use(middleware.PanicRecover())
	server.Use(middleware.RequestId())
	middleware.SetUpLogger(server)
	store := cookie.NewStore([]byte(config.SessionSecret))
	server.Use(sessions.Sessions("session", store))

	router.SetRouter(server)
	setupMonitoringEndpoints(server)

	var port = os.Getenv("PORT")
	if port == "" {
		port = strconv.Itoa(*common.Port)
	}
	err = server.Run(":" + port)
	if err != nil {
		logger.FatalLog("failed to start HTTP server: " + err.Error())
	}
}
