// Package mailbox provides the bounded blocking queue each procthread thread
// owns, and the synchronous request/reply protocol layered on top of it.
//
// # Architecture
//
// A [Mailbox] is a circular buffer of fixed capacity (5 slots unless
// configured otherwise) guarded by one syncprim.Mutex, with two condition
// variables: nonempty wakes receivers, nonfull wakes senders. At all times
//
//	count == (in - out) mod capacity,  0 <= count <= capacity
//
// where a full queue has in == out and count == capacity.
//
// # Main Types
//
//   - [Message]: a tagged record {Type, Payload, Origin}
//   - [Mailbox]: the bounded queue
//
// # Basic Usage
//
//	// Thread X asks thread Y to do something and waits for the answer.
//	replyType, reply, err := mailbox.SendRecv(yBox, MsgCompute, input, xBox)
//
//	// Thread Y serves requests.
//	for {
//	    req, err := yBox.Recv()
//	    if err != nil {
//	        return err
//	    }
//	    _ = mailbox.Reply(req, MsgResult, compute(req.Payload), yBox)
//	}
//
// # Blocking
//
// Send blocks while the mailbox is full and Recv blocks while it is empty.
// Neither has a timeout or cancellation. Every request accepted through
// SendRecv must be answered with exactly one Reply to its origin, otherwise
// the requester blocks forever.
//
// # Ownership
//
// Payloads are handed over by reference; the mailbox never copies or
// inspects them. Ordering is FIFO within one mailbox and unspecified across
// mailboxes. Destroy must not race with Send or Recv; it reports EBUSY
// instead of tearing down a mailbox with blocked threads.
package mailbox
