package tcp

import (
	"net"
	"testing"

	"github.com/YiuTerran/go-netcore/network/ioc"
	"github.com/YiuTerran/go-netcore/network/thread"
)

// startIOC 启动n个worker，返回的函数停止并等待它们退出
func startIOC(n int) (*ioc.Context, func()) {
	ctx := ioc.New()
	tm := thread.NewManager()
	tm.LaunchN(n, ctx.Run)
	return ctx, func() {
		ctx.Stop()
		tm.Join()
	}
}

// pipeSession 把session接到net.Pipe的一端，返回另一端
func pipeSession(t *testing.T, s *Session) net.Conn {
	t.Helper()
	return pipeSessionWrap(t, s, nil)
}

// pipeSessionWrap wrap不为空时session一端的conn先经过它包装
func pipeSessionWrap(t *testing.T, s *Session, wrap func(net.Conn) net.Conn) net.Conn {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = b.Close()
	})
	if wrap != nil {
		a = wrap(a)
	}
	s.attach(a)
	s.processConnect(thread.InitTLS())
	return b
}

func packet(id uint16, body string) []byte {
	p := make([]byte, PacketHeaderSize+len(body))
	PacketHeader{Size: uint16(len(p)), ID: id}.Put(p)
	copy(p[PacketHeaderSize:], body)
	return p
}

type recvPacket struct {
	id   uint16
	body string
}

// recorder 把回调转成channel
type recorder struct {
	connected    chan *Session
	packets      chan recvPacket
	disconnected chan string
}

func newRecorder() *recorder {
	return &recorder{
		connected:    make(chan *Session, 16),
		packets:      make(chan recvPacket, 64),
		disconnected: make(chan string, 16),
	}
}

func (r *recorder) handler() *PacketHandler {
	return &PacketHandler{
		HandlerFuncs: HandlerFuncs{
			Connected: func(_ *thread.TLS, s *Session) {
				r.connected <- s
			},
			Disconnected: func(_ *Session, cause string) {
				r.disconnected <- cause
			},
		},
		OnRecvPacket: func(_ *thread.TLS, _ *Session, h PacketHeader, body []byte) {
			r.packets <- recvPacket{id: h.ID, body: string(body)}
		},
	}
}
