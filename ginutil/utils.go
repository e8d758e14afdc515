package ginutil

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// InitRouter 创建一个激活常用配置的router
func InitRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(AccessLogHandler(true, "/metrics"))
	router.Use(RecoveryHandler())
	EnableLogSwitch(router)
	return router
}

// EnableMetrics 暴露默认registry里的所有指标
func EnableMetrics(router gin.IRouter) {
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// EnableLogSwitch 运行时修改日志级别，PUT /log/level?level=debug
func EnableLogSwitch(router gin.IRouter) {
	router.PUT("/log/level", func(c *gin.Context) {
		level := c.Query("level")
		if level == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "level is required"})
			return
		}
		log.ChangeLogLevel(log.ParseLevel(level))
		log.Info("log level changed to %s", level)
		c.JSON(http.StatusOK, gin.H{"debug": log.IsDebugEnabled()})
	})
}

// Serve 在后台启动http服务，返回的函数用于优雅退出
func Serve(addr string, handler http.Handler) func() {
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		log.Info("admin http listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("admin http: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
