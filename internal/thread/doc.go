// Package thread spawns, joins and detaches OS-level threads that each own a
// mailbox.
//
// A Thread is a goroutine locked to its own OS thread for its whole life.
// The goroutine exits while still locked, so the runtime retires the OS
// thread with it, matching the lifecycle of a natively created thread.
//
// There is no hidden per-thread global. The trampoline installs the
// thread's identity into the context handed to the entry function, and code
// running on the thread recovers it with [Self]:
//
//	t, err := thread.Spawn(ctx, func(ctx context.Context, arg any) any {
//	    me := thread.Self(ctx)
//	    msg, _ := me.Mailbox().Recv()
//	    _ = mailbox.Reply(msg, 0, arg, me.Mailbox())
//	    return nil
//	}, "hello")
//
// The process's initial thread, which is not created through Spawn, joins in
// through [Main].
package thread
