package tcp

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/YiuTerran/go-netcore/network/ioc"
	"github.com/YiuTerran/go-netcore/network/netaddr"
	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"
)

type tempError struct{}

func (tempError) Error() string   { return "resource temporarily unavailable" }
func (tempError) Timeout() bool   { return false }
func (tempError) Temporary() bool { return true }

// scriptListener 按顺序返回errs里的错误，用完之后阻塞到Close
type scriptListener struct {
	errs   []error
	calls  atomic.Int32
	closed chan struct{}
	once   sync.Once
}

func newScriptListener(errs ...error) *scriptListener {
	return &scriptListener{errs: errs, closed: make(chan struct{})}
}

func (l *scriptListener) Accept() (net.Conn, error) {
	i := int(l.calls.Inc()) - 1
	if i < len(l.errs) {
		return nil, l.errs[i]
	}
	<-l.closed
	return nil, net.ErrClosed
}

func (l *scriptListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *scriptListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestServerService_AcceptErrors(t *testing.T) {
	tests := []struct {
		name  string
		errs  []error
		calls int32
	}{
		{"temporary errors back off and retry", []error{tempError{}, tempError{}}, 3},
		{"permanent error stops accept", []error{errors.New("listener broken"), tempError{}}, 1},
		{"temporary then permanent", []error{tempError{}, errors.New("listener broken")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, stop := startIOC(1)
			defer stop()
			ln := newScriptListener(tt.errs...)
			defer ln.Close()

			svc := NewServerService(ctx, netaddr.Any(0), func(ctx *ioc.Context) *Session {
				return NewSession(ctx, nil)
			})
			svc.ln = ln
			svc.startAccept()

			assert.Eventually(t, func() bool {
				return ln.calls.Load() == tt.calls
			}, wait, 5*time.Millisecond)
			assert.Never(t, func() bool {
				return ln.calls.Load() > tt.calls
			}, 100*time.Millisecond, 10*time.Millisecond)
			assert.Equal(t, 0, svc.SessionCount())
		})
	}
}
