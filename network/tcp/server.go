package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/YiuTerran/go-netcore/network"
	"github.com/YiuTerran/go-netcore/network/ioc"
	"github.com/YiuTerran/go-netcore/network/netaddr"
	"github.com/YiuTerran/go-netcore/network/sockopt"
	"github.com/YiuTerran/go-netcore/network/thread"
	"go.uber.org/atomic"
)

// ServerService 监听地址并把每个accept的连接交给factory创建的Session
//
// 同一时刻只有一个accept在等待；会话数达到上限时暂停accept，
// 有会话释放后自动恢复
type ServerService struct {
	*Service
	ln        net.Listener
	paused    atomic.Bool
	tempDelay time.Duration
}

var _ network.Service = (*ServerService)(nil)

func NewServerService(ctx *ioc.Context, addr netaddr.Address, factory SessionFactory, opts ...Option) *ServerService {
	s := &ServerService{Service: newService(KindServer, ctx, addr, factory, opts...)}
	s.onRelease = s.resumeAccept
	return s
}

// Start 开始监听，端口为0时Addr()返回实际分配的地址
func (s *ServerService) Start() error {
	if s.factory == nil {
		return network.ErrNoFactory
	}
	if s.Closed() {
		return network.ErrServiceClosed
	}
	ln, err := sockopt.Listen(context.Background(), s.addr, s.opts.ReuseAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.ln = ln
	s.addr = netaddr.FromNetAddr(ln.Addr())
	s.onClose = ln.Close
	s.log.Info("listening on %s, max sessions %d", s.addr, s.opts.MaxSessionCount)
	s.startAccept()
	return nil
}

func (s *ServerService) startAccept() {
	if s.Closed() {
		return
	}
	if s.SessionCount() >= s.MaxSessionCount() {
		s.paused.Store(true)
		s.log.Warn("session count reached %d, accept paused", s.MaxSessionCount())
		// 检查和暂停之间可能已经有会话释放了
		if s.SessionCount() < s.MaxSessionCount() {
			s.resumeAccept()
		}
		return
	}
	sess := s.CreateSession()
	if sess == nil {
		s.log.Error("session factory returned nil, accept stopped")
		return
	}
	ln := s.ln
	s.ctx.Async(func() ioc.Task {
		conn, err := ln.Accept()
		return func(tls *thread.TLS) {
			s.processAccept(tls, sess, conn, err)
		}
	})
}

func (s *ServerService) resumeAccept() {
	if s.paused.CompareAndSwap(true, false) {
		s.log.Info("accept resumed")
		s.startAccept()
	}
}

func (s *ServerService) processAccept(tls *thread.TLS, sess *Session, conn net.Conn, err error) {
	// 出错时预先创建的sess还没有加入会话表，直接丢弃
	if err != nil {
		if s.Closed() || errors.Is(err, net.ErrClosed) {
			return
		}
		var ne net.Error
		if !errors.As(err, &ne) || !ne.Temporary() {
			s.log.Error("accept error: %v, accept stopped", err)
			return
		}
		if s.tempDelay == 0 {
			s.tempDelay = 5 * time.Millisecond
		} else {
			s.tempDelay *= 2
		}
		if max := 1 * time.Second; s.tempDelay > max {
			s.tempDelay = max
		}
		s.log.Info("accept error: %v; retrying in %v", err, s.tempDelay)
		time.AfterFunc(s.tempDelay, s.startAccept)
		return
	}
	s.tempDelay = 0
	if s.Closed() {
		_ = conn.Close()
		return
	}
	s.metrics.accepted.Inc()
	sess.attach(conn)
	sess.processConnect(tls)
	s.startAccept()
}
