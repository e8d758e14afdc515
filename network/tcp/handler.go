package tcp

import (
	"github.com/YiuTerran/go-netcore/network/thread"
)

// Handler 连接事件回调，除OnDisconnected外都在ioc的worker上执行
// 同一个session的OnRecv不会并发
type Handler interface {
	OnConnected(tls *thread.TLS, s *Session)
	// OnRecv 返回消费掉的字节数，剩余数据留到下次；返回负数或超过len(data)会断开连接
	OnRecv(tls *thread.TLS, s *Session, data []byte) int
	// OnSend n是一次写完成的字节数
	OnSend(tls *thread.TLS, s *Session, n int)
	// OnDisconnected 在调用Disconnect的协程里执行，每个session只会调用一次
	OnDisconnected(s *Session, cause string)
}

// HandlerFuncs 用函数实现Handler，为nil的回调什么都不做
// Recv为nil时丢弃所有数据
type HandlerFuncs struct {
	Connected    func(tls *thread.TLS, s *Session)
	Recv         func(tls *thread.TLS, s *Session, data []byte) int
	Sent         func(tls *thread.TLS, s *Session, n int)
	Disconnected func(s *Session, cause string)
}

var _ Handler = (*HandlerFuncs)(nil)

func (h *HandlerFuncs) OnConnected(tls *thread.TLS, s *Session) {
	if h.Connected != nil {
		h.Connected(tls, s)
	}
}

func (h *HandlerFuncs) OnRecv(tls *thread.TLS, s *Session, data []byte) int {
	if h.Recv != nil {
		return h.Recv(tls, s, data)
	}
	return len(data)
}

func (h *HandlerFuncs) OnSend(tls *thread.TLS, s *Session, n int) {
	if h.Sent != nil {
		h.Sent(tls, s, n)
	}
}

func (h *HandlerFuncs) OnDisconnected(s *Session, cause string) {
	if h.Disconnected != nil {
		h.Disconnected(s, cause)
	}
}

// BaseHandler 空实现，嵌入后只需要重写关心的方法
type BaseHandler struct{}

func (BaseHandler) OnConnected(*thread.TLS, *Session) {}

func (BaseHandler) OnRecv(_ *thread.TLS, _ *Session, data []byte) int {
	return len(data)
}

func (BaseHandler) OnSend(*thread.TLS, *Session, int) {}

func (BaseHandler) OnDisconnected(*Session, string) {}
