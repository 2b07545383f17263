//go:build !linux && !windows

package thread

import (
	"bytes"
	"runtime"
	"strconv"
)

// platformCurrentID falls back to the goroutine id where no portable thread
// id call exists. Threads are locked to their goroutine, so it still
// identifies one thread for its lifetime.
func platformCurrentID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
