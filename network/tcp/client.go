package tcp

import (
	"fmt"

	"github.com/YiuTerran/go-netcore/network"
	"github.com/YiuTerran/go-netcore/network/ioc"
	"github.com/YiuTerran/go-netcore/network/netaddr"
)

// ClientService 向同一个地址发起MaxSessionCount个连接
// 断开的连接不会自动重连
type ClientService struct {
	*Service
}

var _ network.Service = (*ClientService)(nil)

func NewClientService(ctx *ioc.Context, target netaddr.Address, factory SessionFactory, opts ...Option) *ClientService {
	return &ClientService{Service: newService(KindClient, ctx, target, factory, opts...)}
}

// Start 发起所有连接，连接结果异步回调
// 返回nil只表示连接已经发出
func (c *ClientService) Start() error {
	if c.factory == nil {
		return network.ErrNoFactory
	}
	if c.Closed() {
		return network.ErrServiceClosed
	}
	for i := 0; i < c.MaxSessionCount(); i++ {
		sess := c.CreateSession()
		if sess == nil || !sess.Connect() {
			return fmt.Errorf("connect session %d to %s: %w", i, c.addr, network.ErrNotStarted)
		}
	}
	c.log.Info("connecting %d sessions to %s", c.MaxSessionCount(), c.addr)
	return nil
}
