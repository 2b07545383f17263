//go:build windows

package thread

import "golang.org/x/sys/windows"

func platformCurrentID() uint64 {
	return uint64(windows.GetCurrentThreadId())
}
