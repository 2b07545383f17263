package thread

// CurrentID returns the OS-level identifier of the calling thread. The value
// is only stable for goroutines locked to their OS thread, which every
// spawned thread and the Main thread are.
func CurrentID() uint64 {
	return platformCurrentID()
}
