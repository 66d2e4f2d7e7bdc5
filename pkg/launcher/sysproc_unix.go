//go:build !windows

package launcher

import "syscall"

// detachedProcAttr puts the worker in its own session so it outlives the CLI
func detachedProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
