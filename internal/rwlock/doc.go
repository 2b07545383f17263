// Package rwlock provides reader/writer locks behind a single [RWLock]
// interface with two interchangeable backends.
//
// # Backends
//
//   - [KindNative] delegates to sync.RWMutex, the platform's reader/writer
//     primitive.
//   - [KindEmulated] is built only from an exclusive mutex, a manual-reset
//     event and an atomic reader count, for environments where a native
//     reader/writer lock is unavailable.
//
// Both allow many concurrent readers, give a writer exclusive access, and do
// not support upgrading a read lock to a write lock. A single Unlock releases
// whichever mode the caller holds.
//
// # Emulated algorithm
//
// A reader takes writeMutex, bumps the reader count, resets readEvent and
// releases writeMutex, so afterwards it holds nothing but its place in the
// count. A writer takes writeMutex and keeps it for its whole critical
// section; while readers remain it waits on readEvent, which the last
// departing reader sets. Because the writer holds writeMutex while it waits,
// no new reader can enter behind it.
//
// Try variants make a zero-length attempt, and the timed variants a bounded
// one. When either the writeMutex acquisition or the wait for readers fails,
// the attempt is abandoned, writeMutex is released if it was taken, and the
// lock is left exactly as it was.
//
// # Selecting a backend
//
//	lock, err := rwlock.New(rwlock.KindEmulated, rwlock.WithLogger(logger))
//
// The CLI and harness read the backend from the rwlock.backend config key.
package rwlock
