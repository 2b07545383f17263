// Package syncprim provides the raw synchronization primitives of procthread:
// a non-reentrant [Mutex], a condition variable [Cond] with a bounded
// [Cond.TimedWait], and a manual-reset [Event].
//
// Every primitive has an explicit lifecycle. Constructors return a ready
// handle; Destroy releases it and refuses (with EBUSY) while the primitive is
// held or has waiters. Any use after Destroy fails with EINVAL. Success is a
// nil error; failures are *errors.PrimitiveError values wrapping the OS error
// code, so callers can read the numeric code with errors.Code.
//
// # Misuse
//
// Relocking a Mutex from the holder deadlocks, exactly like the platform
// primitive it stands in for. Unlocking an unlocked Mutex is reported as
// EPERM rather than corrupting state; the success path is unaffected.
//
// # Condition variables
//
// A waiter is registered before the mutex is released, so a Signal issued by
// a thread that acquired the mutex afterwards always reaches it. Waiters are
// woken in arrival order. Spurious returns are still permitted by the
// contract, so callers re-check their predicate in a loop:
//
//	m.Lock()
//	for !ready {
//	    cv.Wait(m)
//	}
//	m.Unlock()
package syncprim
