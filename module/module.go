// Package module 按固定顺序启动一组模块，退出时逆序销毁
package module

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/YiuTerran/go-netcore/base/log"
)

type Module interface {
	Name() string
	// OnInit 失败时已经加载的模块会被逆序销毁
	OnInit() error
	OnDestroy()
	// Run 在独立的协程里执行，closeSig收到信号后返回
	Run(closeSig chan struct{})
}

type module struct {
	mi       Module
	closeSig chan struct{}
	wg       sync.WaitGroup
}

// Loader 持有已经加载的模块
type Loader struct {
	lock sync.Mutex
	mods []*module
}

// Load 按顺序初始化并运行模块
func (l *Loader) Load(mis ...Module) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	for _, mi := range mis {
		if err := mi.OnInit(); err != nil {
			l.destroyAll()
			return fmt.Errorf("init module %s: %w", mi.Name(), err)
		}
		m := &module{mi: mi, closeSig: make(chan struct{}, 1)}
		m.wg.Add(1)
		go run(m)
		l.mods = append(l.mods, m)
		log.Info("module registered: %s", mi.Name())
	}
	return nil
}

// Destroy 逆序销毁所有模块，可以重复调用
func (l *Loader) Destroy() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.destroyAll()
}

func (l *Loader) destroyAll() {
	for i := len(l.mods) - 1; i >= 0; i-- {
		destroyMod(l.mods[i])
	}
	l.mods = nil
}

func (l *Loader) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()
	return len(l.mods)
}

func destroyMod(m *module) {
	defer func() {
		if r := recover(); r != nil {
			log.PanicStack(fmt.Sprintf("panic when destroy module %s", m.mi.Name()), r)
		}
	}()
	m.closeSig <- struct{}{}
	m.wg.Wait()
	m.mi.OnDestroy()
	log.Info("module destroyed: %s", m.mi.Name())
}

func run(m *module) {
	defer m.wg.Done()
	m.mi.Run(m.closeSig)
}

// StaticRun 加载模块后阻塞到收到退出信号或done关闭
// beforeClose是在所有模块销毁前执行的
func StaticRun(mods []Module, done <-chan struct{}, beforeClose func()) error {
	log.Info("Server starting up...")
	var l Loader
	if err := l.Load(mods...); err != nil {
		return err
	}
	closeChannel := make(chan os.Signal, 1)
	signal.Notify(closeChannel, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-closeChannel:
		log.Info("received %v", sig)
	case <-done:
	}
	signal.Stop(closeChannel)
	if beforeClose != nil {
		beforeClose()
	}
	l.Destroy()
	log.Info("Server closing down...")
	return nil
}

// Func 用函数拼一个模块，为nil的回调什么都不做
type Func struct {
	ModName string
	Init    func() error
	Destroy func()
}

func (f *Func) Name() string {
	return f.ModName
}

func (f *Func) OnInit() error {
	if f.Init != nil {
		return f.Init()
	}
	return nil
}

func (f *Func) OnDestroy() {
	if f.Destroy != nil {
		f.Destroy()
	}
}

func (f *Func) Run(closeSig chan struct{}) {
	<-closeSig
}
