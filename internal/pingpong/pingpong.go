package pingpong

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/procthread/internal/logging"
	"github.com/Iron-Ham/procthread/internal/mailbox"
	"github.com/Iron-Ham/procthread/internal/metrics"
	"github.com/Iron-Ham/procthread/internal/thread"
)

// Message types exchanged between clients and servers.
const (
	MsgIncrement = iota + 1
	MsgResult
	MsgStop
)

// Config sizes a ping-pong run.
type Config struct {
	Pairs           int
	Rounds          int
	MailboxCapacity int
	Logger          *logging.Logger
	Metrics         *metrics.Collector
}

// Report summarizes a completed run.
type Report struct {
	RunID    string
	Pairs    int
	Rounds   int
	Elapsed  time.Duration
	Messages int // requests, replies and stop messages
}

// Throughput returns messages per second.
func (r Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Messages) / r.Elapsed.Seconds()
}

// Run spawns cfg.Pairs client/server thread pairs, performs cfg.Rounds
// calls per pair and verifies every reply. Cancelling ctx stops clients
// between rounds.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Pairs <= 0 || cfg.Rounds <= 0 {
		return Report{}, fmt.Errorf("pingpong: pairs and rounds must be positive (got %d, %d)", cfg.Pairs, cfg.Rounds)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NopLogger()
	}
	runID := uuid.NewString()
	logger := cfg.Logger.WithComponent("pingpong").WithRun(runID)
	opts := []thread.Option{
		thread.WithMailboxCapacity(cfg.MailboxCapacity),
		thread.WithLogger(logger),
		thread.WithMetrics(cfg.Metrics),
	}

	logger.Info("starting ping-pong run", "pairs", cfg.Pairs, "rounds", cfg.Rounds)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	calls := make([]int, cfg.Pairs)
	for i := range cfg.Pairs {
		server, err := thread.Spawn(gctx, serve, nil, opts...)
		if err != nil {
			return Report{}, fmt.Errorf("pair %d: spawn server: %w", i, err)
		}
		client, err := thread.Spawn(gctx, call, clientArgs{server: server, rounds: cfg.Rounds}, opts...)
		if err != nil {
			_ = server.Mailbox().Send(MsgStop, nil, nil)
			_, _ = server.Join()
			return Report{}, fmt.Errorf("pair %d: spawn client: %w", i, err)
		}

		g.Go(func() error {
			cres, cerr := client.Join()
			sres, serr := server.Join()
			if cerr != nil {
				return fmt.Errorf("pair %d: client: %w", i, cerr)
			}
			if serr != nil {
				return fmt.Errorf("pair %d: server: %w", i, serr)
			}
			if err, ok := cres.(error); ok {
				return fmt.Errorf("pair %d: client: %w", i, err)
			}
			if err, ok := sres.(error); ok {
				return fmt.Errorf("pair %d: server: %w", i, err)
			}
			if cres.(int) != sres.(int) {
				return fmt.Errorf("pair %d: client made %d calls but server answered %d", i, cres, sres)
			}
			calls[i] = cres.(int)
			return nil
		})
	}

	err := g.Wait()
	report := Report{
		RunID:   runID,
		Pairs:   cfg.Pairs,
		Rounds:  cfg.Rounds,
		Elapsed: time.Since(start),
	}
	for _, n := range calls {
		report.Messages += 2*n + 1
	}
	if err != nil {
		logger.Error("ping-pong run failed", "error", err)
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	logger.Info("ping-pong run complete",
		"elapsed", report.Elapsed,
		"messages", report.Messages,
		"msgs_per_sec", report.Throughput())
	return report, nil
}

type clientArgs struct {
	server *thread.Thread
	rounds int
}

// call is the client entry. It returns the number of completed calls, or
// an error on a bad reply.
func call(ctx context.Context, arg any) any {
	args := arg.(clientArgs)
	me := thread.Self(ctx).Mailbox()
	target := args.server.Mailbox()
	defer func() { _ = target.Send(MsgStop, nil, nil) }()

	for i := range args.rounds {
		if ctx.Err() != nil {
			return i
		}
		typ, payload, err := mailbox.SendRecv(target, MsgIncrement, i, me)
		if err != nil {
			return err
		}
		if typ != MsgResult || payload != i+1 {
			return fmt.Errorf("round %d: got reply (%d, %v), want (%d, %d)", i, typ, payload, MsgResult, i+1)
		}
	}
	return args.rounds
}

// serve is the server entry. It answers increment requests until it
// receives MsgStop and returns the number of requests served.
func serve(ctx context.Context, _ any) any {
	me := thread.Self(ctx).Mailbox()
	served := 0
	for {
		req, err := me.Recv()
		if err != nil {
			return err
		}
		switch req.Type {
		case MsgStop:
			return served
		case MsgIncrement:
			n, ok := req.Payload.(int)
			if !ok {
				return fmt.Errorf("increment payload is %T, want int", req.Payload)
			}
			if err := mailbox.Reply(req, MsgResult, n+1, me); err != nil {
				return err
			}
			served++
		default:
			return fmt.Errorf("unexpected message type %d", req.Type)
		}
	}
}
