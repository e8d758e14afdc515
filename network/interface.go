package network

import (
	"github.com/YiuTerran/go-netcore/network/buffer"
	"github.com/YiuTerran/go-netcore/network/netaddr"
)

// Session 对单个连接的抽象，所有方法goroutine safe
type Session interface {
	// Send 排队发送，b必须已经Close；返回false表示连接已经断开
	Send(b *buffer.SendBuffer) bool
	// Disconnect 只有第一次调用生效
	Disconnect(cause string) bool
	IsConnected() bool
	RemoteAddr() netaddr.Address
}

// Service 持有一组Session，server监听，client主动连接
type Service interface {
	Start() error
	CloseService()
	// Broadcast 同一个buffer发给所有在线的Session，不拷贝数据
	Broadcast(b *buffer.SendBuffer)
	SessionCount() int
	MaxSessionCount() int
}
