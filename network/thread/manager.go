package thread

import (
	"fmt"
	"sync"

	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/YiuTerran/go-netcore/base/structs/wg"
	"github.com/YiuTerran/go-netcore/network/buffer"
	"go.uber.org/atomic"
)

// 进程内唯一的可变全局状态，给每个worker分配编号
var threadID atomic.Int32

// TLS worker私有的状态，只能在创建它的协程里使用
type TLS struct {
	ID int32
	// 当前用于切分SendBuffer的chunk
	Send buffer.Local
}

// InitTLS 分配一个新的编号，从1开始递增
func InitTLS() *TLS {
	return &TLS{ID: threadID.Inc()}
}

// Destroy worker退出时归还当前的发送chunk
func (t *TLS) Destroy() {
	t.Send.Release()
}

func (t *TLS) String() string {
	return fmt.Sprintf("worker-%d", t.ID)
}

// Manager 启动worker协程并等待它们退出
type Manager struct {
	mu   sync.Mutex
	wg   *wg.WaitGroup
	main *TLS
}

// NewManager 同时给调用方所在的协程分配一个TLS
func NewManager() *Manager {
	return &Manager{
		wg:   wg.NewWaitGroup("thread manager"),
		main: InitTLS(),
	}
}

// Main 创建Manager的协程使用的TLS
func (m *Manager) Main() *TLS {
	return m.main
}

// Launch 新起一个worker，fn返回后worker退出
func (m *Manager) Launch(fn func(tls *TLS)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wg.Incr()
	go func() {
		tls := InitTLS()
		defer func() {
			if r := recover(); r != nil {
				log.PanicStack(fmt.Sprintf("panic in %s", tls), r)
			}
			tls.Destroy()
			m.wg.Done()
		}()
		fn(tls)
	}()
}

func (m *Manager) LaunchN(n int, fn func(tls *TLS)) {
	for i := 0; i < n; i++ {
		m.Launch(fn)
	}
}

// Running 还没退出的worker数量
func (m *Manager) Running() int64 {
	return m.wg.Current()
}

// Join 阻塞直到所有worker退出
func (m *Manager) Join() {
	m.wg.Wait()
}
