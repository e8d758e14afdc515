// Package ioc 是所有worker共享的完成事件队列
//
// 阻塞的网络操作(accept/dial/read/write)在独立协程里执行，完成后把回调Post进来，
// 由任意一个执行Run的worker取出执行，所以回调不能假设固定在某个worker上
package ioc

import (
	"sync"

	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/YiuTerran/go-netcore/network/thread"
	"github.com/eapache/queue"
	"go.uber.org/atomic"
)

// Task 完成回调，tls是执行它的worker
type Task func(tls *thread.TLS)

type Context struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   *queue.Queue
	stopped bool
	done    atomic.Int64
}

func New() *Context {
	c := &Context{tasks: queue.New()}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Post 投递一个回调，Stop之后返回false
func (c *Context) Post(task Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false
	}
	c.tasks.Add(task)
	c.cond.Signal()
	return true
}

// Async 在新协程里执行阻塞的op，再把op返回的回调投递到队列
// Context已经停止时回调直接在该协程里执行，保证清理逻辑一定会跑
func (c *Context) Async(op func() Task) {
	go func() {
		task := op()
		if task == nil || c.Post(task) {
			return
		}
		tls := thread.InitTLS()
		defer tls.Destroy()
		c.exec(tls, task)
	}()
}

// Run 循环执行回调，直到Stop并且队列清空
func (c *Context) Run(tls *thread.TLS) {
	for {
		task, ok := c.next()
		if !ok {
			return
		}
		c.exec(tls, task)
	}
}

func (c *Context) next() (Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.tasks.Length() == 0 && !c.stopped {
		c.cond.Wait()
	}
	if c.tasks.Length() == 0 {
		return nil, false
	}
	return c.tasks.Remove().(Task), true
}

func (c *Context) exec(tls *thread.TLS, task Task) {
	defer func() {
		if r := recover(); r != nil {
			log.PanicStack("panic in io completion", r)
		}
		c.done.Inc()
	}()
	task(tls)
}

// Stop 不再接受新的回调，已经排队的回调执行完后Run返回
func (c *Context) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *Context) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// Pending 排队中的回调数量
func (c *Context) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tasks.Length()
}

// Executed 已经执行过的回调数量
func (c *Context) Executed() int64 {
	return c.done.Load()
}
