//go:build !unix

package desktop

import "syscall"

func detachedAttr() *syscall.SysProcAttr {
	return nil
}
