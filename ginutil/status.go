package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// ServiceInfo 状态接口需要的服务信息，tcp.ServerService和tcp.ClientService都实现了
type ServiceInfo interface {
	Name() string
	SessionCount() int
	MaxSessionCount() int
	Closed() bool
}

type ServiceStatus struct {
	Name     string `json:"name"`
	Sessions int    `json:"sessions"`
	Max      int    `json:"max"`
	Closed   bool   `json:"closed"`
}

// EnableStatus GET /services 返回每个服务的会话数
func EnableStatus(router gin.IRouter, services ...ServiceInfo) {
	router.GET("/services", func(c *gin.Context) {
		c.JSON(http.StatusOK, lo.Map(services, func(s ServiceInfo, _ int) ServiceStatus {
			return ServiceStatus{
				Name:     s.Name(),
				Sessions: s.SessionCount(),
				Max:      s.MaxSessionCount(),
				Closed:   s.Closed(),
			}
		}))
	})
}
