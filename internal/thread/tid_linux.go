//go:build linux

package thread

import "golang.org/x/sys/unix"

func platformCurrentID() uint64 {
	return uint64(unix.Gettid())
}
