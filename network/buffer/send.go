package buffer

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/atomic"
)

// ChunkSize 单个chunk的容量，单条消息必须小于这个值
const ChunkSize = 6000

var (
	ErrAllocTooLarge = errors.New("buffer: send allocation larger than chunk")
	ErrInvalidSize   = errors.New("buffer: negative send allocation")
	ErrChunkOpen     = errors.New("buffer: previous send buffer is not closed")
)

var (
	chunkAllocCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "send_chunk_alloc_total",
		Help:      "Send chunks allocated because the pool was empty.",
	})
	chunkReuseCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "netcore",
		Name:      "send_chunk_reuse_total",
		Help:      "Send chunks taken from the pool.",
	})
)

// chunk 一块固定大小的内存，SendBuffer从里面顺序切出来
// used/open只会被持有它的Local所在协程修改；refs可以在任意协程释放
type chunk struct {
	buf  []byte
	used int
	open bool
	// Local持有一个引用，每个切出去的SendBuffer各持有一个
	refs atomic.Int32
	mgr  *Manager
}

func (c *chunk) reset() {
	c.used = 0
	c.open = false
}

func (c *chunk) free() int {
	return len(c.buf) - c.used
}

func (c *chunk) carve(size int) *SendBuffer {
	c.open = true
	c.refs.Inc()
	b := &SendBuffer{
		owner: c,
		buf:   c.buf[c.used : c.used+size : c.used+size],
	}
	b.refs.Store(1)
	return b
}

func (c *chunk) release() {
	switch n := c.refs.Dec(); {
	case n == 0:
		c.mgr.push(c)
	case n < 0:
		panic("buffer: chunk released too many times")
	}
}

// SendBuffer 从chunk里切出来的一段发送缓冲
//
// 生命周期：Manager.Open创建 -> 调用方填充Buffer() -> Close封口 -> 交给一个或多个Session发送
// 创建者持有一个引用，用完必须Release；Session在发送期间自己持有引用
// Close之后内容不会再被修改，所以可以同时广播给多个Session
type SendBuffer struct {
	owner     *chunk
	buf       []byte
	writeSize int
	closed    bool
	refs      atomic.Int32
}

// Buffer 可写区域，长度为申请的大小，Close之后不能再写
func (b *SendBuffer) Buffer() []byte {
	return b.buf
}

// Close 确定实际写入的长度，只能调用一次
// 之后同一个chunk才能继续切下一块
func (b *SendBuffer) Close(writeSize int) {
	if b.closed {
		panic("buffer: send buffer closed twice")
	}
	if writeSize < 0 || writeSize > len(b.buf) {
		panic("buffer: write size exceeds alloc size")
	}
	b.writeSize = writeSize
	b.closed = true
	b.owner.used += writeSize
	b.owner.open = false
}

// Bytes 封口后的数据，cap被截断，append不会覆盖相邻的buffer
func (b *SendBuffer) Bytes() []byte {
	return b.buf[:b.writeSize:b.writeSize]
}

func (b *SendBuffer) AllocSize() int {
	return len(b.buf)
}

func (b *SendBuffer) WriteSize() int {
	return b.writeSize
}

func (b *SendBuffer) Closed() bool {
	return b.closed
}

// Retain 增加一个持有者
func (b *SendBuffer) Retain() {
	if b.refs.Inc() <= 1 {
		panic("buffer: retain of released send buffer")
	}
}

// Release 最后一个持有者释放时归还chunk的引用
// 没有Close就释放相当于放弃这次申请，必须在申请的协程里调用
func (b *SendBuffer) Release() {
	switch n := b.refs.Dec(); {
	case n == 0:
		if !b.closed {
			b.closed = true
			b.owner.open = false
		}
		b.owner.release()
	case n < 0:
		panic("buffer: send buffer released too many times")
	}
}

// Local 每个worker协程自己的当前chunk，不能跨协程共享
// 对应thread.TLS里的发送槽位
type Local struct {
	current *chunk
}

// Release 放弃当前chunk，worker退出时调用
func (l *Local) Release() {
	if c := l.current; c != nil {
		l.current = nil
		c.release()
	}
}

// Manager 全局的chunk池
// 切分是无锁的，只在从池里取/还chunk时加锁
type Manager struct {
	mu        sync.Mutex
	chunks    []*chunk
	chunkSize int
	allocated atomic.Int64
}

func NewManager() *Manager {
	return NewManagerSize(ChunkSize)
}

func NewManagerSize(chunkSize int) *Manager {
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}
	return &Manager{chunkSize: chunkSize}
}

// Open 在l的当前chunk上切出size字节
// 当前chunk不够时换一块新的，旧的在所有buffer释放后自动回池
func (m *Manager) Open(l *Local, size int) (*SendBuffer, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	if size > m.chunkSize {
		return nil, ErrAllocTooLarge
	}
	if l.current != nil && l.current.mgr != m {
		l.Release()
	}
	if l.current != nil && l.current.open {
		return nil, ErrChunkOpen
	}
	if l.current == nil || l.current.free() < size {
		l.Release()
		l.current = m.pop()
	}
	return l.current.carve(size), nil
}

// Write 申请并拷贝p，返回已经Close的buffer
func (m *Manager) Write(l *Local, p []byte) (*SendBuffer, error) {
	b, err := m.Open(l, len(p))
	if err != nil {
		return nil, err
	}
	copy(b.Buffer(), p)
	b.Close(len(p))
	return b, nil
}

func (m *Manager) pop() *chunk {
	m.mu.Lock()
	var c *chunk
	if n := len(m.chunks); n > 0 {
		c = m.chunks[n-1]
		m.chunks[n-1] = nil
		m.chunks = m.chunks[:n-1]
	}
	m.mu.Unlock()

	if c == nil {
		c = &chunk{buf: make([]byte, m.chunkSize), mgr: m}
		m.allocated.Inc()
		chunkAllocCounter.Inc()
	} else {
		chunkReuseCounter.Inc()
	}
	c.reset()
	c.refs.Store(1)
	return c
}

func (m *Manager) push(c *chunk) {
	m.mu.Lock()
	m.chunks = append(m.chunks, c)
	m.mu.Unlock()
}

// PoolSize 池里空闲的chunk数量
func (m *Manager) PoolSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.chunks)
}

// Allocated 总共新建过的chunk数量
func (m *Manager) Allocated() int64 {
	return m.allocated.Load()
}

func (m *Manager) ChunkSize() int {
	return m.chunkSize
}
