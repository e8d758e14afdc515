package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/YiuTerran/go-netcore/network"
	"github.com/YiuTerran/go-netcore/network/buffer"
	"github.com/YiuTerran/go-netcore/network/ioc"
	"github.com/YiuTerran/go-netcore/network/netaddr"
	"github.com/YiuTerran/go-netcore/network/sockopt"
	"github.com/YiuTerran/go-netcore/network/thread"
	"github.com/eapache/queue"
	"go.uber.org/atomic"
)

type SessionID uint64

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type sendState int

const (
	sendIdle sendState = iota
	sendDraining
)

// Session 一条tcp连接
//
// 同一时刻最多一个读和一个写在进行，写按Send的顺序排队
// 断开后不能再次连接
type Session struct {
	id      SessionID
	ctx     *ioc.Context
	handler Handler
	service *Service
	log     log.Fields

	state atomic.Int32
	// conn/remote在状态变为Connected之前写入，之后只读
	conn   net.Conn
	remote netaddr.Address

	// 只在读完成回调里访问，读是串行的
	recvBuf *buffer.RecvBuffer

	sendMu    sync.Mutex
	sendQueue *queue.Queue
	sendState sendState
}

var _ network.Session = (*Session)(nil)

func NewSession(ctx *ioc.Context, handler Handler, opts ...SessionOption) *Session {
	o := sessionOptions{recvUnit: DefaultRecvUnitSize, recvCount: DefaultRecvUnitCount}
	for _, opt := range opts {
		opt(&o)
	}
	if handler == nil {
		handler = BaseHandler{}
	}
	return &Session{
		ctx:       ctx,
		handler:   handler,
		log:       log.Fields{}.WithPrefix("session"),
		recvBuf:   buffer.NewRecvBufferN(o.recvUnit, o.recvCount),
		sendQueue: queue.New(),
	}
}

// bind 由Service.CreateSession调用
func (s *Session) bind(svc *Service, id SessionID) {
	s.service = svc
	s.id = id
	s.log = svc.log.WithPrefix(fmt.Sprintf("%s session:%d", svc.log.Prefix(), id))
}

func (s *Session) ID() SessionID {
	return s.id
}

// Service 没有归属服务时返回nil
func (s *Session) Service() *Service {
	return s.service
}

func (s *Session) Context() *ioc.Context {
	return s.ctx
}

func (s *Session) Handler() Handler {
	return s.handler
}

func (s *Session) RemoteAddr() netaddr.Address {
	return s.remote
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) IsConnected() bool {
	return s.State() == StateConnected
}

func (s *Session) String() string {
	return fmt.Sprintf("session:%d(%s)", s.id, s.remote)
}

func (s *Session) metrics() *serviceMetrics {
	if s.service != nil {
		return s.service.metrics
	}
	return unboundMetrics
}

// Connect 异步连接到归属服务的地址，没有发起时返回false
// 连接失败状态回到Disconnected，可以重试
func (s *Session) Connect() bool {
	svc := s.service
	if svc == nil || !svc.Addr().IsValid() {
		return false
	}
	if !s.state.CompareAndSwap(int32(StateDisconnected), int32(StateConnecting)) {
		return false
	}
	if s.conn != nil {
		// 已经断开过的session不能复用
		s.state.Store(int32(StateDisconnected))
		return false
	}
	addr, timeout := svc.Addr(), svc.opts.DialTimeout
	s.ctx.Async(func() ioc.Task {
		conn, err := sockopt.Dial(context.Background(), addr, timeout)
		return func(tls *thread.TLS) {
			if err != nil {
				s.state.Store(int32(StateDisconnected))
				s.log.Warn("connect to %s failed: %v", addr, err)
				return
			}
			s.attach(conn)
			s.processConnect(tls)
		}
	})
	return true
}

func (s *Session) attach(conn net.Conn) {
	s.conn = conn
	s.remote = sockopt.RemoteAddr(conn)
	s.log = s.log.With("remote", s.remote)
	if s.service != nil && s.service.opts.NoDelay && !sockopt.ConfigureBasic(conn) {
		s.log.Debug("fail to configure socket options")
	}
}

// processConnect 连接建立后注册到服务，服务拒绝时直接断开，不会回调OnConnected
func (s *Session) processConnect(tls *thread.TLS) {
	s.state.Store(int32(StateConnected))
	if svc := s.service; svc != nil && !svc.AddSession(s) {
		cause := network.CauseMaxSessions
		if svc.Closed() {
			cause = network.CauseServiceClosed
		}
		s.Disconnect(cause)
		return
	}
	s.log.Debug("connected")
	s.handler.OnConnected(tls, s)
	s.registerRecv()
}

// Disconnect 关闭连接并回调OnDisconnected，只有第一次调用返回true
// 排队中还没发出去的buffer直接释放
func (s *Session) Disconnect(cause string) bool {
	if !s.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnected)) {
		return false
	}
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.dropQueued()
	s.log.Debug("disconnected: %s", cause)
	s.handler.OnDisconnected(s, cause)
	if svc := s.service; svc != nil {
		svc.ReleaseSession(s)
	}
	return true
}

// handleError 连接已经不可用的错误断开session，其他的只记录
func (s *Session) handleError(op, cause string, err error) bool {
	if network.IsTerminal(err) {
		s.log.Debug("%s: %v", op, err)
		s.Disconnect(cause)
		return true
	}
	s.log.Error("%s error: %v", op, err)
	return false
}

func (s *Session) registerRecv() {
	if !s.IsConnected() {
		return
	}
	conn, p := s.conn, s.recvBuf.WriteSlice()
	s.ctx.Async(func() ioc.Task {
		n, err := conn.Read(p)
		return func(tls *thread.TLS) {
			s.processRecv(tls, n, err)
		}
	})
}

func (s *Session) processRecv(tls *thread.TLS, n int, err error) {
	if !s.IsConnected() {
		return
	}
	if n > 0 {
		s.metrics().bytesIn.Add(float64(n))
		if !s.recvBuf.OnWrite(n) {
			s.Disconnect(network.CauseReadOverflow)
			return
		}
		data := s.recvBuf.ReadSlice()
		processed := s.handler.OnRecv(tls, s, data)
		if processed < 0 || processed > len(data) || !s.recvBuf.OnRead(processed) {
			s.Disconnect(network.CauseReadOverflow)
			return
		}
		s.recvBuf.Clean()
	}
	if err != nil {
		s.processRecvError(err)
		return
	}
	if s.recvBuf.FreeSize() == 0 {
		s.Disconnect(network.CauseRecvBufferFull)
		return
	}
	s.registerRecv()
}

func (s *Session) processRecvError(err error) {
	if errors.Is(err, io.EOF) {
		s.Disconnect(network.CausePeerClosed)
		return
	}
	if !s.handleError("recv", network.CauseRecvError, err) {
		s.Disconnect(network.CauseRecvError)
	}
}

// Send b必须已经Close，空的buffer直接忽略
// 调用方仍然持有自己的引用，发送期间session另外持有一个
func (s *Session) Send(b *buffer.SendBuffer) bool {
	if b == nil || !b.Closed() {
		s.log.Error("send buffer must be closed before send")
		return false
	}
	if !s.IsConnected() {
		return false
	}
	if b.WriteSize() == 0 {
		return true
	}
	s.sendMu.Lock()
	if !s.IsConnected() {
		s.sendMu.Unlock()
		return false
	}
	b.Retain()
	s.sendQueue.Add(b)
	var batch []*buffer.SendBuffer
	if s.sendState == sendIdle {
		s.sendState = sendDraining
		batch = s.drainLocked()
	}
	s.sendMu.Unlock()

	if batch != nil {
		s.registerSend(batch)
	}
	return true
}

func (s *Session) drainLocked() []*buffer.SendBuffer {
	batch := make([]*buffer.SendBuffer, 0, s.sendQueue.Length())
	for s.sendQueue.Length() > 0 {
		batch = append(batch, s.sendQueue.Remove().(*buffer.SendBuffer))
	}
	return batch
}

func (s *Session) dropQueued() {
	s.sendMu.Lock()
	dropped := s.drainLocked()
	s.sendMu.Unlock()
	for _, b := range dropped {
		b.Release()
	}
}

// registerSend 一次vectored write发出整批数据
func (s *Session) registerSend(batch []*buffer.SendBuffer) {
	bufs := make(net.Buffers, 0, len(batch))
	for _, b := range batch {
		bufs = append(bufs, b.Bytes())
	}
	conn := s.conn
	s.ctx.Async(func() ioc.Task {
		n, err := bufs.WriteTo(conn)
		return func(tls *thread.TLS) {
			s.processSend(tls, batch, int(n), err)
		}
	})
}

func (s *Session) processSend(tls *thread.TLS, batch []*buffer.SendBuffer, n int, err error) {
	for _, b := range batch {
		b.Release()
	}
	switch {
	case err != nil:
		// 写了一部分的记录无法补齐，后面再发字节流就错位了
		if !s.handleError("send", network.CauseSendError, err) {
			s.Disconnect(network.CauseSendError)
		}
		return
	case n == 0:
		s.Disconnect(network.CauseSendZero)
		return
	default:
		s.metrics().bytesOut.Add(float64(n))
		s.handler.OnSend(tls, s, n)
	}
	if !s.IsConnected() {
		return
	}

	s.sendMu.Lock()
	if s.sendQueue.Length() == 0 {
		s.sendState = sendIdle
		s.sendMu.Unlock()
		return
	}
	next := s.drainLocked()
	s.sendMu.Unlock()
	s.registerSend(next)
}
