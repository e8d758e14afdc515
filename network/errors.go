package network

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// 断开原因，会传给OnDisconnected
const (
	CauseReadOverflow   = "Read Overflow"
	CauseRecvBufferFull = "Recv Buffer Full"
	CauseRecvError      = "Recv Error"
	CauseSendError      = "Send Error"
	CauseSendZero       = "Send Zero"
	CausePeerClosed     = "Closed by peer"
	CauseMaxSessions    = "Max sessions"
	CauseServiceClosed  = "Service closed"
)

var (
	ErrServiceClosed = errors.New("network: service closed")
	ErrNoFactory     = errors.New("network: session factory not set")
	ErrNotStarted    = errors.New("network: connect could not be started")
)

// IsTerminal 连接已经不可用的错误，遇到后应当断开session
// 其他错误只记录日志
func IsTerminal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, net.ErrClosed),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE):
		return true
	}
	return false
}
