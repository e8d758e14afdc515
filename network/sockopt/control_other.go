//go:build !unix

package sockopt

import "syscall"

// 非unix平台使用系统默认行为
func reuseAddrControl(_, _ string, _ syscall.RawConn) error {
	return nil
}
