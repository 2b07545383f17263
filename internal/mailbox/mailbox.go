package mailbox

import (
	"github.com/Iron-Ham/procthread/internal/counter"
	"github.com/Iron-Ham/procthread/internal/errors"
	"github.com/Iron-Ham/procthread/internal/logging"
	"github.com/Iron-Ham/procthread/internal/metrics"
	"github.com/Iron-Ham/procthread/internal/syncprim"
)

// mailboxIDs mints the id each mailbox carries in its log lines.
var mailboxIDs counter.Counter

// Mailbox is a bounded blocking FIFO of Messages.
type Mailbox struct {
	id       uint32
	capacity int
	mu       *syncprim.Mutex
	nonempty *syncprim.Cond
	nonfull  *syncprim.Cond
	logger   *logging.Logger
	metrics  *metrics.Collector

	// Guarded by mu.
	queue     []Message
	in        int
	out       int
	count     int
	waiting   int // threads blocked in Send or Recv
	destroyed bool
}

// New creates an empty mailbox.
func New(opts ...Option) (*Mailbox, error) {
	cfg := config{capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.capacity < 1 {
		cfg.capacity = DefaultCapacity
	}
	if cfg.logger == nil {
		cfg.logger = logging.NopLogger()
	}

	mu, err := syncprim.NewMutex()
	if err != nil {
		return nil, err
	}
	nonempty, err := syncprim.NewCond()
	if err != nil {
		_ = mu.Destroy()
		return nil, err
	}
	nonfull, err := syncprim.NewCond()
	if err != nil {
		_ = nonempty.Destroy()
		_ = mu.Destroy()
		return nil, err
	}

	id := mailboxIDs.Increment()
	return &Mailbox{
		id:       id,
		capacity: cfg.capacity,
		mu:       mu,
		nonempty: nonempty,
		nonfull:  nonfull,
		logger:   cfg.logger.WithComponent("mailbox").With("mailbox_id", id),
		metrics:  cfg.metrics,
		queue:    make([]Message, cfg.capacity),
	}, nil
}

// ID returns the mailbox's process-unique id.
func (m *Mailbox) ID() uint32 {
	return m.id
}

// Cap returns the number of slots.
func (m *Mailbox) Cap() int {
	return m.capacity
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	if m.mu.Lock() != nil {
		return 0
	}
	defer func() { _ = m.mu.Unlock() }()
	return m.count
}

// lock acquires mu and verifies the mailbox is still alive.
func (m *Mailbox) lock(op string) error {
	if err := m.mu.Lock(); err != nil {
		return errors.NewPrimitiveError("mailbox", op, errors.ErrDestroyed)
	}
	if m.destroyed {
		_ = m.mu.Unlock()
		return errors.NewPrimitiveError("mailbox", op, errors.ErrDestroyed)
	}
	return nil
}

// Send enqueues {typ, payload, origin}, blocking while the mailbox is full.
func (m *Mailbox) Send(typ int, payload any, origin *Mailbox) error {
	if err := m.lock("send"); err != nil {
		return err
	}

	if m.count == len(m.queue) {
		m.metrics.MailboxBlocked("send")
		m.logger.Debug("send blocked on full mailbox", "capacity", len(m.queue))
	}
	for m.count == len(m.queue) {
		m.waiting++
		err := m.nonfull.Wait(m.mu)
		m.waiting--
		if err != nil {
			_ = m.mu.Unlock()
			return err
		}
	}

	m.queue[m.in] = Message{Type: typ, Payload: payload, Origin: origin}
	m.in = (m.in + 1) % len(m.queue)
	m.count++
	err := m.nonempty.Signal()
	if uerr := m.mu.Unlock(); err == nil {
		err = uerr
	}

	m.metrics.MailboxSent()
	return err
}

// Recv dequeues the oldest message, blocking while the mailbox is empty.
func (m *Mailbox) Recv() (Message, error) {
	if err := m.lock("recv"); err != nil {
		return Message{}, err
	}

	if m.count == 0 {
		m.metrics.MailboxBlocked("recv")
	}
	for m.count == 0 {
		m.waiting++
		err := m.nonempty.Wait(m.mu)
		m.waiting--
		if err != nil {
			_ = m.mu.Unlock()
			return Message{}, err
		}
	}

	msg := m.queue[m.out]
	m.queue[m.out] = Message{}
	m.out = (m.out + 1) % len(m.queue)
	m.count--
	err := m.nonfull.Signal()
	if uerr := m.mu.Unlock(); err == nil {
		err = uerr
	}

	m.metrics.MailboxReceived()
	return msg, err
}

// Call sends a request to target with m as the origin and waits on m for
// the reply. See SendRecv.
func (m *Mailbox) Call(target *Mailbox, typ int, payload any) (int, any, error) {
	return SendRecv(target, typ, payload, m)
}

// Destroy releases the mailbox. It fails with EBUSY while any thread is
// blocked in Send or Recv. Queued messages are dropped.
func (m *Mailbox) Destroy() error {
	if err := m.lock("destroy"); err != nil {
		return err
	}
	if m.waiting > 0 {
		_ = m.mu.Unlock()
		return errors.NewPrimitiveError("mailbox", "destroy", errors.ErrBusy)
	}
	if m.count > 0 {
		m.logger.Debug("destroying mailbox with undelivered messages", "count", m.count)
	}

	m.destroyed = true
	m.queue = nil
	m.count, m.in, m.out = 0, 0, 0
	errs := []error{m.nonempty.Destroy(), m.nonfull.Destroy(), m.mu.Unlock()}
	errs = append(errs, m.mu.Destroy())
	return errors.Join(errs...)
}
