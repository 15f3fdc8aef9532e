//go:build linux

package agent

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func controlSocket(opt SocketConfig) controlFunc {
	return func(_, _ string, c syscall.RawConn) error {
		var (
			errControl error
			errSyscall error
		)

		errControl = c.Control(func(fd uintptr) {
			errSyscall = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			if errSyscall != nil {
				errSyscall = os.NewSyscallError("failed to set SO_REUSEADDR", errSyscall)
				return
			}

			if opt.SO_REUSEPORT {
				errSyscall = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
				if errSyscall != nil {
					errSyscall = os.NewSyscallError("failed to set SO_REUSEPORT", errSyscall)
					return
				}
			}

			if opt.SO_RCVBUF > 0 {
				errSyscall = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, opt.SO_RCVBUF)
				if errSyscall != nil {
					errSyscall = os.NewSyscallError("failed to set SO_RCVBUF", errSyscall)
					return
				}
			}

			if opt.SO_SNDBUF > 0 {
				errSyscall = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, opt.SO_SNDBUF)
				if errSyscall != nil {
					errSyscall = os.NewSyscallError("failed to set SO_SNDBUF", errSyscall)
					return
				}
			}
		})

		if errSyscall != nil {
			return errSyscall
		}
		return errControl
	}
}
