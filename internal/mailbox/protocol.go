package mailbox

import "github.com/Iron-Ham/procthread/internal/errors"

// SendRecv performs a synchronous call: it sends {typ, payload} to target
// with self as the origin, then blocks receiving on self and returns the
// reply's type and payload.
//
// The receiver must answer with exactly one Reply. self must not be shared
// with other traffic while the call is outstanding, since the first message
// to arrive on it is taken as the reply.
func SendRecv(target *Mailbox, typ int, payload any, self *Mailbox) (int, any, error) {
	if target == nil || self == nil {
		return 0, nil, errors.NewPrimitiveError("mailbox", "send_recv", errors.ErrDestroyed)
	}
	if err := target.Send(typ, payload, self); err != nil {
		return 0, nil, err
	}
	reply, err := self.Recv()
	if err != nil {
		return 0, nil, err
	}
	return reply.Type, reply.Payload, nil
}

// Reply sends the answer to req back to its origin, naming self as the
// sender. A request without an origin cannot be answered.
func Reply(req Message, typ int, payload any, self *Mailbox) error {
	if !req.HasOrigin() {
		return errors.NewPrimitiveError("mailbox", "reply", errors.ErrDestroyed).WithCause(errors.ErrNoOrigin)
	}
	return req.Origin.Send(typ, payload, self)
}
