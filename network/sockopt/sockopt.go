// Package sockopt 套接字选项的薄封装，失败只返回false，由调用方决定是否在意
package sockopt

import (
	"context"
	"net"
	"time"

	"github.com/YiuTerran/go-netcore/network/netaddr"
)

func tcpConn(c net.Conn) (*net.TCPConn, bool) {
	tc, ok := c.(*net.TCPConn)
	return tc, ok
}

func SetNoDelay(c net.Conn, on bool) bool {
	tc, ok := tcpConn(c)
	return ok && tc.SetNoDelay(on) == nil
}

func SetKeepAlive(c net.Conn, on bool) bool {
	tc, ok := tcpConn(c)
	return ok && tc.SetKeepAlive(on) == nil
}

func SetKeepAlivePeriod(c net.Conn, d time.Duration) bool {
	tc, ok := tcpConn(c)
	return ok && tc.SetKeepAlivePeriod(d) == nil
}

// SetLinger sec<0 使用系统默认行为，0 表示close时直接RST
func SetLinger(c net.Conn, sec int) bool {
	tc, ok := tcpConn(c)
	return ok && tc.SetLinger(sec) == nil
}

func SetReadBuffer(c net.Conn, size int) bool {
	tc, ok := tcpConn(c)
	return ok && tc.SetReadBuffer(size) == nil
}

func SetWriteBuffer(c net.Conn, size int) bool {
	tc, ok := tcpConn(c)
	return ok && tc.SetWriteBuffer(size) == nil
}

// ConfigureBasic 新连接的默认设置：关闭Nagle并打开keepalive
func ConfigureBasic(c net.Conn) bool {
	return SetNoDelay(c, true) && SetKeepAlive(c, true)
}

// IsOpen 底层fd是否还可用，Close之后返回false
func IsOpen(c net.Conn) bool {
	tc, ok := tcpConn(c)
	if !ok {
		return false
	}
	rc, err := tc.SyscallConn()
	if err != nil {
		return false
	}
	return rc.Control(func(uintptr) {}) == nil
}

func LocalAddr(c net.Conn) netaddr.Address {
	if c == nil {
		return netaddr.Address{}
	}
	return netaddr.FromNetAddr(c.LocalAddr())
}

func RemoteAddr(c net.Conn) netaddr.Address {
	if c == nil {
		return netaddr.Address{}
	}
	return netaddr.FromNetAddr(c.RemoteAddr())
}

// Listen reuse为true时设置SO_REUSEADDR
func Listen(ctx context.Context, addr netaddr.Address, reuse bool) (net.Listener, error) {
	lc := net.ListenConfig{}
	if reuse {
		lc.Control = reuseAddrControl
	}
	return lc.Listen(ctx, "tcp", addr.String())
}

// Dial 带超时的连接，timeout<=0表示不限制
func Dial(ctx context.Context, addr netaddr.Address, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, "tcp", addr.String())
}
