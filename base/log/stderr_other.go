//go:build !linux && !windows

package log

import "os"

// redirectStderr 只替换os.Stderr，runtime直接写fd 2的内容不受影响
func redirectStderr(errorFile string) error {
	f, err := os.OpenFile(errorFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	os.Stderr = f
	return nil
}
