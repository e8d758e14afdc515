package main

import (
	"fmt"

	"github.com/YiuTerran/go-netcore/config"
	"github.com/YiuTerran/go-netcore/ginutil"
	"github.com/YiuTerran/go-netcore/module"
	"github.com/YiuTerran/go-netcore/network"
	"github.com/YiuTerran/go-netcore/network/buffer"
	"github.com/YiuTerran/go-netcore/network/ioc"
	"github.com/YiuTerran/go-netcore/network/thread"
)

// app 一个进程共用的ioc、worker和发送缓冲池
type app struct {
	workers int
	ctx     *ioc.Context
	tm      *thread.Manager
	mgr     *buffer.Manager
}

func newApp(workers int) *app {
	return &app{
		workers: workers,
		ctx:     ioc.New(),
		tm:      thread.NewManager(),
		mgr:     buffer.NewManager(),
	}
}

// workerModule 必须第一个加载，最后一个销毁，等worker处理完剩下的回调
func (a *app) workerModule() module.Module {
	return &module.Func{
		ModName: "io workers",
		Init: func() error {
			a.tm.LaunchN(a.workers, a.ctx.Run)
			return nil
		},
		Destroy: func() {
			a.ctx.Stop()
			a.tm.Join()
			a.tm.Main().Destroy()
		},
	}
}

type service interface {
	network.Service
	ginutil.ServiceInfo
}

func serviceModule(svc service) module.Module {
	return &module.Func{
		ModName: fmt.Sprintf("service %s", svc.Name()),
		Init:    svc.Start,
		Destroy: svc.CloseService,
	}
}

// adminModule listen为空时什么都不做
func adminModule(cfg config.Admin, services ...ginutil.ServiceInfo) module.Module {
	var stop func()
	return &module.Func{
		ModName: "admin http",
		Init: func() error {
			if cfg.Listen == "" {
				return nil
			}
			router := ginutil.InitRouter()
			ginutil.EnableMetrics(router)
			ginutil.EnableStatus(router, services...)
			stop = ginutil.Serve(cfg.Listen, router)
			return nil
		},
		Destroy: func() {
			if stop != nil {
				stop()
			}
		},
	}
}
