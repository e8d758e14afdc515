package main

import (
	"fmt"
	"sync"

	"github.com/YiuTerran/go-netcore/base/log"
	"github.com/YiuTerran/go-netcore/network/buffer"
	"github.com/YiuTerran/go-netcore/network/ioc"
	"github.com/YiuTerran/go-netcore/network/tcp"
	"github.com/YiuTerran/go-netcore/network/thread"
	"go.uber.org/atomic"
)

// echoFactory 把收到的记录原样发回去，broadcast时发给所有会话
func echoFactory(mgr *buffer.Manager, broadcast bool, opts ...tcp.SessionOption) tcp.SessionFactory {
	return func(ctx *ioc.Context) *tcp.Session {
		h := &tcp.PacketHandler{
			OnRecvPacket: func(tls *thread.TLS, s *tcp.Session, header tcp.PacketHeader, body []byte) {
				b, err := tcp.EncodePacket(mgr, &tls.Send, header.ID, body)
				if err != nil {
					log.Error("encode echo: %v", err)
					return
				}
				defer b.Release()
				if broadcast {
					s.Service().Broadcast(b)
				} else {
					s.Send(b)
				}
			},
		}
		h.Connected = func(_ *thread.TLS, s *tcp.Session) {
			log.Info("%s connected", s)
		}
		h.Disconnected = func(s *tcp.Session, cause string) {
			log.Info("%s disconnected: %s", s, cause)
		}
		return tcp.NewSession(ctx, h, opts...)
	}
}

// dialer 每个会话连上后发送records条记录，等全部回显后结束
type dialer struct {
	mgr      *buffer.Manager
	records  int
	sessions int

	echoed   atomic.Int64
	finished atomic.Int32
	doneOnce sync.Once
	done     chan struct{}
}

func newDialer(mgr *buffer.Manager, sessions, records int) *dialer {
	return &dialer{
		mgr:      mgr,
		records:  records,
		sessions: sessions,
		done:     make(chan struct{}),
	}
}

func (d *dialer) finishOne() {
	if int(d.finished.Inc()) >= d.sessions {
		d.doneOnce.Do(func() {
			close(d.done)
		})
	}
}

func (d *dialer) factory(ctx *ioc.Context) *tcp.Session {
	var got atomic.Int32
	h := &tcp.PacketHandler{
		OnRecvPacket: func(_ *thread.TLS, s *tcp.Session, header tcp.PacketHeader, body []byte) {
			d.echoed.Inc()
			log.Debug("%s echo #%d: %s", s, header.ID, body)
			if int(got.Inc()) == d.records {
				d.finishOne()
			}
		},
	}
	h.Connected = func(tls *thread.TLS, s *tcp.Session) {
		if d.records == 0 {
			d.finishOne()
			return
		}
		for i := 1; i <= d.records; i++ {
			b, err := tcp.EncodePacket(d.mgr, &tls.Send, uint16(i), []byte(fmt.Sprintf("ping-%d", i)))
			if err != nil {
				log.Error("encode ping: %v", err)
				s.Disconnect("encode failed")
				return
			}
			s.Send(b)
			b.Release()
		}
	}
	h.Disconnected = func(s *tcp.Session, cause string) {
		if int(got.Load()) < d.records {
			log.Warn("%s disconnected before all echoes: %s", s, cause)
			d.finishOne()
		}
	}
	return tcp.NewSession(ctx, h)
}
