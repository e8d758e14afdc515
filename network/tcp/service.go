package tcp

import (
	"fmt"
	"sync"

	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/YiuTerran/go-netcore/network"
	"github.com/YiuTerran/go-netcore/network/buffer"
	"github.com/YiuTerran/go-netcore/network/ioc"
	"github.com/YiuTerran/go-netcore/network/netaddr"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/atomic"
)

type Kind int

const (
	KindServer Kind = iota
	KindClient
)

func (k Kind) String() string {
	if k == KindServer {
		return "server"
	}
	return "client"
}

// SessionFactory 给服务创建新的Session，一般是NewSession加上自己的Handler
type SessionFactory func(ctx *ioc.Context) *Session

// Service 管理一组Session，ServerService和ClientService共用
//
// 会话表是并发map，数量检查和插入在admitMu下完成
// 调用Session的方法时不持有任何锁
type Service struct {
	kind    Kind
	uid     string
	addr    netaddr.Address
	ctx     *ioc.Context
	factory SessionFactory
	opts    Options
	log     log.Fields
	metrics *serviceMetrics

	admitMu  sync.Mutex
	sessions *xsync.MapOf[SessionID, *Session]
	count    atomic.Int32
	nextID   atomic.Uint64
	closed   atomic.Bool

	// 会话释放后的通知，server用来恢复accept
	onRelease func()
	// CloseService时调用，server用来关闭监听
	onClose func() error
}

func newService(kind Kind, ctx *ioc.Context, addr netaddr.Address, factory SessionFactory, opts ...Option) *Service {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxSessionCount <= 0 {
		log.Debug("invalid MaxSessionCount %d, reset to 1", o.MaxSessionCount)
		o.MaxSessionCount = 1
	}
	if o.Name == "" {
		o.Name = kind.String()
	}
	uid := uuid.NewString()
	return &Service{
		kind:     kind,
		uid:      uid,
		addr:     addr,
		ctx:      ctx,
		factory:  factory,
		opts:     o,
		log:      log.Fields{"service": uid[:8]}.WithPrefix(fmt.Sprintf("%s:%s", kind, o.Name)),
		metrics:  newServiceMetrics(o.Name),
		sessions: xsync.NewMapOf[SessionID, *Session](),
	}
}

func (s *Service) Kind() Kind {
	return s.kind
}

// UID 服务实例的唯一编号
func (s *Service) UID() string {
	return s.uid
}

// Addr server是监听地址，client是目标地址
func (s *Service) Addr() netaddr.Address {
	return s.addr
}

func (s *Service) Name() string {
	return s.opts.Name
}

func (s *Service) Context() *ioc.Context {
	return s.ctx
}

func (s *Service) SessionCount() int {
	return int(s.count.Load())
}

func (s *Service) MaxSessionCount() int {
	return s.opts.MaxSessionCount
}

func (s *Service) Closed() bool {
	return s.closed.Load()
}

func (s *Service) Session(id SessionID) (*Session, bool) {
	return s.sessions.Load(id)
}

// Sessions 当前会话的快照
func (s *Service) Sessions() []*Session {
	all := make([]*Session, 0, s.SessionCount())
	s.sessions.Range(func(_ SessionID, sess *Session) bool {
		all = append(all, sess)
		return true
	})
	return all
}

// CreateSession 调用factory并分配编号，factory未设置或者返回nil时返回nil
func (s *Service) CreateSession() *Session {
	if s.factory == nil {
		return nil
	}
	sess := s.factory(s.ctx)
	if sess == nil {
		return nil
	}
	sess.bind(s, SessionID(s.nextID.Inc()))
	return sess
}

// AddSession 达到上限或者服务已关闭时返回false
func (s *Service) AddSession(sess *Session) bool {
	if sess == nil || sess.service != s {
		return false
	}
	s.admitMu.Lock()
	if s.closed.Load() {
		s.admitMu.Unlock()
		return false
	}
	if s.SessionCount() >= s.opts.MaxSessionCount {
		s.admitMu.Unlock()
		s.metrics.rejected.Inc()
		s.log.Warn("reject %s: max sessions %d", sess, s.opts.MaxSessionCount)
		return false
	}
	if _, loaded := s.sessions.LoadOrStore(sess.id, sess); loaded {
		s.admitMu.Unlock()
		return false
	}
	s.count.Inc()
	s.admitMu.Unlock()

	s.metrics.active.Inc()
	// 插入前已经被断开的session不会再释放自己
	if !sess.IsConnected() {
		s.ReleaseSession(sess)
		return false
	}
	return true
}

// ReleaseSession 只有表里存在时才会减少计数
func (s *Service) ReleaseSession(sess *Session) bool {
	if sess == nil || sess.service != s {
		return false
	}
	if _, ok := s.sessions.LoadAndDelete(sess.id); !ok {
		return false
	}
	s.count.Dec()
	s.metrics.active.Dec()
	if s.onRelease != nil {
		s.onRelease()
	}
	return true
}

// Broadcast 发给当前所有会话，b的引用仍由调用方释放
func (s *Service) Broadcast(b *buffer.SendBuffer) {
	s.sessions.Range(func(_ SessionID, sess *Session) bool {
		sess.Send(b)
		return true
	})
}

// CloseService 停止接受新会话并断开所有会话，可以重复调用
func (s *Service) CloseService() {
	s.admitMu.Lock()
	already := s.closed.Swap(true)
	s.admitMu.Unlock()
	if already {
		return
	}
	if s.onClose != nil {
		if err := s.onClose(); err != nil {
			s.log.Warn("close: %v", err)
		}
	}
	for _, sess := range s.Sessions() {
		if !sess.Disconnect(network.CauseServiceClosed) {
			s.ReleaseSession(sess)
		}
	}
	s.log.Info("closed")
}
