package tcp

import (
	"time"
)

const (
	DefaultRecvUnitSize  = 0x10000
	DefaultRecvUnitCount = 10
)

// Options 服务的配置项，零值字段在newService里填默认值
type Options struct {
	Name            string
	MaxSessionCount int
	// 监听时是否设置SO_REUSEADDR
	ReuseAddr bool
	// 新连接是否关闭Nagle并打开keepalive
	NoDelay     bool
	DialTimeout time.Duration
}

type Option func(*Options)

func defaultOptions() Options {
	return Options{
		MaxSessionCount: 1,
		ReuseAddr:       true,
		NoDelay:         true,
		DialTimeout:     3 * time.Second,
	}
}

func Name(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

func MaxSessionCount(n int) Option {
	return func(o *Options) {
		o.MaxSessionCount = n
	}
}

func ReuseAddr(on bool) Option {
	return func(o *Options) {
		o.ReuseAddr = on
	}
}

func NoDelay(on bool) Option {
	return func(o *Options) {
		o.NoDelay = on
	}
}

func DialTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.DialTimeout = d
	}
}

// SessionOption 创建Session时的配置
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	recvUnit  int
	recvCount int
}

// RecvBuffer 接收缓冲区大小为unit*count，一条完整的记录不能超过它
func RecvBuffer(unit, count int) SessionOption {
	return func(o *sessionOptions) {
		o.recvUnit = unit
		o.recvCount = count
	}
}
