package wg

import (
	"sync"
	"time"

	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/samber/lo"
	"go.uber.org/atomic"
)

// WaitGroup 可以看到还剩多少任务的sync.WaitGroup
// Wait时每隔ReportInterval打印一次剩余数量，方便排查关闭时卡住的协程
type WaitGroup struct {
	real     sync.WaitGroup
	cnt      atomic.Int64
	name     string
	warnCnt  atomic.Int64
	interval atomic.Duration
}

const defaultReportInterval = 3 * time.Second

func NewWaitGroup(name ...string) *WaitGroup {
	w := &WaitGroup{name: "wg"}
	if n, ok := lo.Find(name, func(s string) bool { return s != "" }); ok {
		w.name = n
	}
	w.interval.Store(defaultReportInterval)
	return w
}

// SetWarnCnt 同时在跑的任务超过这个数就打警告，0表示不检查
func (w *WaitGroup) SetWarnCnt(warnCnt int64) {
	w.warnCnt.Store(warnCnt)
}

func (w *WaitGroup) SetReportInterval(d time.Duration) {
	if d > 0 {
		w.interval.Store(d)
	}
}

func (w *WaitGroup) Current() int64 {
	return w.cnt.Load()
}

func (w *WaitGroup) Wait() {
	ch := make(chan struct{})
	go func() {
		w.real.Wait()
		close(ch)
	}()
	ticker := time.NewTicker(w.interval.Load())
	defer ticker.Stop()
	for {
		select {
		case <-ch:
			return
		case <-ticker.C:
			log.Info("%s waiting %d task to be done...", w.name, w.Current())
		}
	}
}

func (w *WaitGroup) Add(delta int) {
	cur := w.cnt.Add(int64(delta))
	if threshold := w.warnCnt.Load(); threshold > 0 && cur > threshold {
		log.Warn("waitgroup %s has %d tasks, threshold:%d", w.name, cur, threshold)
	}
	w.real.Add(delta)
}

func (w *WaitGroup) Incr() {
	w.Add(1)
}

func (w *WaitGroup) Done() {
	w.cnt.Dec()
	w.real.Done()
}
