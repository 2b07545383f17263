package thread

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/atomic"

	"github.com/Iron-Ham/procthread/internal/counter"
	"github.com/Iron-Ham/procthread/internal/errors"
	"github.com/Iron-Ham/procthread/internal/logging"
	"github.com/Iron-Ham/procthread/internal/mailbox"
	"github.com/Iron-Ham/procthread/internal/metrics"
)

// Entry is the function a spawned thread runs. Its return value becomes the
// thread's exit result.
type Entry func(ctx context.Context, arg any) any

// Handle states.
const (
	handleLive int32 = iota
	handleJoined
	handleDetached
	handleMain
)

// threadIDs mints handle ids. Id 0 is never handed out.
var threadIDs = counter.New(1)

// Thread is the handle of one OS thread and the owner of its mailbox.
type Thread struct {
	id      uint32
	mailbox *mailbox.Mailbox
	logger  *logging.Logger
	metrics *metrics.Collector

	osID    uint64
	started chan struct{} // closed once osID is recorded
	done    chan struct{} // closed once result and err are final
	result  any
	err     error

	handle atomic.Int32

	relMu    sync.Mutex
	released bool // mailbox destroyed; guarded by relMu
}

func newThread(cfg config) (*Thread, error) {
	id := threadIDs.Increment()
	logger := cfg.logger.WithComponent("thread").WithThread(id)

	mb, err := mailbox.New(
		mailbox.WithCapacity(cfg.capacity),
		mailbox.WithLogger(logger),
		mailbox.WithMetrics(cfg.metrics),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "thread %d: create mailbox", id)
	}
	return &Thread{
		id:      id,
		mailbox: mb,
		logger:  logger,
		metrics: cfg.metrics,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Spawn starts entry(ctx, arg) on a new OS thread and returns its handle.
// The thread's mailbox exists before Spawn returns, so the caller may send
// to it immediately.
func Spawn(ctx context.Context, entry Entry, arg any, opts ...Option) (*Thread, error) {
	if entry == nil {
		return nil, errors.NewPrimitiveError("thread", "spawn", errors.ErrDestroyed)
	}
	cfg := newConfig(opts)
	t, err := newThread(cfg)
	if err != nil {
		return nil, err
	}

	t.logger.Debug("spawning thread", "mailbox_id", t.mailbox.ID())
	go t.trampoline(ctx, entry, arg, cfg.init)
	return t, nil
}

// trampoline is the body of every spawned thread. It returns with the OS
// thread still locked, which retires the OS thread along with the goroutine.
func (t *Thread) trampoline(ctx context.Context, entry Entry, arg any, init InitFunc) {
	runtime.LockOSThread()
	t.osID = CurrentID()
	close(t.started)

	t.metrics.ThreadStarted()
	defer t.exit()

	defer func() {
		if r := recover(); r != nil {
			t.result = nil
			t.err = errors.Wrapf(errors.ErrThreadPanicked, "thread %d: %v", t.id, r)
			t.logger.Error("thread entry panicked", "panic", r)
		}
	}()

	if init != nil {
		if err := init(t); err != nil {
			t.err = errors.Wrapf(err, "thread %d: init", t.id)
			return
		}
	}
	t.logger.Debug("thread started", "os_thread_id", t.osID)
	t.result = entry(withThread(ctx, t), arg)
}

// exit publishes the outcome and, for a detached thread, releases the mailbox.
func (t *Thread) exit() {
	t.metrics.ThreadExited()
	t.logger.Debug("thread exited", "error", t.err)
	close(t.done)
	if t.handle.Load() == handleDetached {
		_ = t.releaseMailbox()
	}
}

// releaseMailbox destroys the mailbox unless an earlier call already did.
// A failed attempt is logged and leaves the mailbox for a later call.
func (t *Thread) releaseMailbox() error {
	t.relMu.Lock()
	defer t.relMu.Unlock()
	if t.released {
		return nil
	}
	if err := t.mailbox.Destroy(); err != nil {
		t.logger.Warn("failed to destroy thread mailbox", "error", err)
		return err
	}
	t.released = true
	return nil
}

// ID returns the handle's process-unique id.
func (t *Thread) ID() uint32 {
	return t.id
}

// OSThreadID returns the OS-level id of the thread, waiting until the thread
// has started if necessary.
func (t *Thread) OSThreadID() uint64 {
	<-t.started
	return t.osID
}

// Mailbox returns the mailbox the thread owns.
func (t *Thread) Mailbox() *mailbox.Mailbox {
	return t.mailbox
}

// Done returns a channel closed when the thread's entry function has returned.
func (t *Thread) Done() <-chan struct{} {
	return t.done
}

// Join blocks until the thread exits and returns its exit result and error.
// The thread's mailbox is destroyed before Join returns. If a peer is still
// blocked in Send on that mailbox, destruction fails with EBUSY; Join still
// reports only the thread's outcome and the mailbox stays until
// ReleaseMailbox succeeds. Joining a detached or already joined handle fails
// with EINVAL.
func (t *Thread) Join() (any, error) {
	if !t.handle.CompareAndSwap(handleLive, handleJoined) {
		return nil, errors.NewPrimitiveError("thread", "join", errors.ErrDestroyed).WithCause(errors.ErrInvalidHandle)
	}
	<-t.done
	_ = t.releaseMailbox()
	return t.result, t.err
}

// Detach releases the handle without waiting. The mailbox is destroyed when
// the thread exits, or immediately if it already has. As with Join, a busy
// mailbox is left for ReleaseMailbox.
func (t *Thread) Detach() error {
	if !t.handle.CompareAndSwap(handleLive, handleDetached) {
		return errors.NewPrimitiveError("thread", "detach", errors.ErrDestroyed).WithCause(errors.ErrInvalidHandle)
	}
	select {
	case <-t.done:
		_ = t.releaseMailbox()
	default:
	}
	return nil
}

// ReleaseMailbox retries destroying the mailbox after Join, Detach or Exit
// found it busy. It returns nil once the mailbox is gone and EBUSY while a
// peer is still blocked on it or the thread has not exited. A live handle
// fails with EINVAL.
func (t *Thread) ReleaseMailbox() error {
	switch t.handle.Load() {
	case handleJoined, handleDetached, handleMain:
	default:
		return errors.NewPrimitiveError("thread", "release", errors.ErrDestroyed).WithCause(errors.ErrInvalidHandle)
	}
	select {
	case <-t.done:
		return t.releaseMailbox()
	default:
		return errors.NewPrimitiveError("thread", "release", errors.ErrBusy)
	}
}

// Main registers the calling goroutine as the process's initial thread. It
// locks the goroutine to its OS thread, gives it a mailbox, and returns a
// context carrying its identity. The handle cannot be joined or detached;
// call Exit when the initial thread is done communicating.
func Main(ctx context.Context, opts ...Option) (*Thread, context.Context, error) {
	cfg := newConfig(opts)
	t, err := newThread(cfg)
	if err != nil {
		return nil, ctx, err
	}
	runtime.LockOSThread()
	t.handle.Store(handleMain)
	t.osID = CurrentID()
	close(t.started)
	t.metrics.ThreadStarted()
	t.logger.Debug("registered initial thread", "os_thread_id", t.osID)
	return t, withThread(ctx, t), nil
}

// Exit unregisters a thread registered with Main. It must be called from
// the same goroutine that called Main.
func (t *Thread) Exit() error {
	if t.handle.Load() != handleMain {
		return errors.NewPrimitiveError("thread", "exit", errors.ErrDestroyed).WithCause(errors.ErrInvalidHandle)
	}
	select {
	case <-t.done:
		return errors.NewPrimitiveError("thread", "exit", errors.ErrDestroyed).WithCause(errors.ErrInvalidHandle)
	default:
	}
	t.metrics.ThreadExited()
	close(t.done)
	runtime.UnlockOSThread()
	return t.releaseMailbox()
}

type ctxKey struct{}

func withThread(ctx context.Context, t *Thread) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// Self returns the thread whose trampoline (or Main registration) produced
// ctx, or nil if ctx carries no thread.
func Self(ctx context.Context) *Thread {
	t, _ := ctx.Value(ctxKey{}).(*Thread)
	return t
}
