package mailbox

import (
	"syscall"
	"testing"
	"time"

	"github.com/Iron-Ham/procthread/internal/errors"
)

func TestSendRecv_RoundTrip(t *testing.T) {
	client := newTestMailbox(t)
	server := newTestMailbox(t)

	go func() {
		req, err := server.Recv()
		if err != nil {
			return
		}
		if req.Origin != client {
			_ = Reply(req, -1, nil, server)
			return
		}
		_ = Reply(req, req.Type+1, req.Payload.(int)*2, server)
	}()

	done := make(chan struct{})
	var (
		typ     int
		payload any
		err     error
	)
	go func() {
		typ, payload, err = SendRecv(server, 10, 21, client)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SendRecv did not return")
	}
	if err != nil {
		t.Fatalf("SendRecv: %v", err)
	}
	if typ != 11 || payload != 42 {
		t.Errorf("SendRecv() = (%d, %v), want (11, 42)", typ, payload)
	}
	if client.Len() != 0 {
		t.Errorf("client Len() = %d, want 0 after the reply was consumed", client.Len())
	}
}

func TestMailbox_Call(t *testing.T) {
	client := newTestMailbox(t)
	server := newTestMailbox(t)

	go func() {
		req, _ := server.Recv()
		_ = Reply(req, 0, "pong", server)
	}()

	_, payload, err := client.Call(server, 0, "ping")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if payload != "pong" {
		t.Errorf("Call() payload = %v, want pong", payload)
	}
}

func TestReply_ReplyCarriesServerAsOrigin(t *testing.T) {
	client := newTestMailbox(t)
	server := newTestMailbox(t)

	_ = server.Send(1, nil, client)
	req, _ := server.Recv()
	if err := Reply(req, 2, nil, server); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	reply, _ := client.Recv()
	if reply.Origin != server {
		t.Error("reply origin should be the replying mailbox")
	}
}

func TestReply_NoOrigin(t *testing.T) {
	server := newTestMailbox(t)
	_ = server.Send(1, nil, nil)
	req, _ := server.Recv()

	err := Reply(req, 2, nil, server)
	if !errors.Is(err, syscall.EINVAL) {
		t.Errorf("Reply without origin = %v, want EINVAL", err)
	}
	if !errors.Is(err, errors.ErrNoOrigin) {
		t.Errorf("Reply without origin = %v, want ErrNoOrigin cause", err)
	}
}

func TestSendRecv_NilMailbox(t *testing.T) {
	mb := newTestMailbox(t)
	if _, _, err := SendRecv(nil, 0, nil, mb); !errors.Is(err, syscall.EINVAL) {
		t.Errorf("SendRecv(nil target) = %v, want EINVAL", err)
	}
	if _, _, err := SendRecv(mb, 0, nil, nil); !errors.Is(err, syscall.EINVAL) {
		t.Errorf("SendRecv(nil self) = %v, want EINVAL", err)
	}
}
