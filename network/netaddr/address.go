package netaddr

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// Address ip+port的值类型，可以直接用==比较
type Address struct {
	ap netip.AddrPort
}

func New(ip string, port uint16) (Address, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return Address{}, fmt.Errorf("invalid ip %q: %w", ip, err)
	}
	return Address{ap: netip.AddrPortFrom(addr.Unmap(), port)}, nil
}

// Parse 解析 "ip:port" 格式，ip为空时表示所有地址
func Parse(s string) (Address, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Address{}, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Address{}, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	if host == "" {
		return Any(uint16(port)), nil
	}
	return New(host, uint16(port))
}

// MustParse 仅用于常量地址
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Any 监听所有ipv4地址
func Any(port uint16) Address {
	return Address{ap: netip.AddrPortFrom(netip.IPv4Unspecified(), port)}
}

// FromNetAddr 从net.Conn的地址转换，不认识的类型返回零值
func FromNetAddr(a net.Addr) Address {
	switch v := a.(type) {
	case *net.TCPAddr:
		ap := v.AddrPort()
		return Address{ap: netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())}
	case nil:
		return Address{}
	default:
		if parsed, err := Parse(a.String()); err == nil {
			return parsed
		}
		return Address{}
	}
}

func (a Address) IP() string {
	if !a.ap.Addr().IsValid() {
		return ""
	}
	return a.ap.Addr().String()
}

func (a Address) Port() uint16 {
	return a.ap.Port()
}

func (a Address) IsValid() bool {
	return a.ap.IsValid()
}

func (a Address) Equal(other Address) bool {
	return a == other
}

func (a Address) TCPAddr() *net.TCPAddr {
	return net.TCPAddrFromAddrPort(a.ap)
}

func (a Address) String() string {
	if !a.IsValid() {
		return ""
	}
	return a.ap.String()
}
