package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// drain waits for in-flight requests and for load balancers to notice the
// failed readiness check. A second signal cuts it short.
func drain(L log.Logger, seconds int) {
	ctx := context.Background()
	L.Info(ctx, "draining", "drain_seconds", seconds)

	again := make(chan os.Signal, 1)
	signal.Notify(again, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(again)

	select {
	case <-time.After(time.Duration(seconds) * time.Second):
		L.Info(ctx, "drain period complete")
	case <-again:
		L.Warn(ctx, "second signal received, skipping drain")
	}
}

type stopStep struct {
	name string
	fn   func(context.Context) error
}

// shutdown runs steps in order, each with an equal slice of the total budget.
// Nil steps (components that failed to start) are skipped.
func shutdown(L log.Logger, budgetSeconds int, steps []stopStep) {
	budget := time.Duration(budgetSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	slice := budget / time.Duration(max(len(steps), 1))
	for _, s := range steps {
		if s.fn == nil {
			continue
		}
		sctx, scancel := context.WithTimeout(ctx, slice)
		if err := s.fn(sctx); err != nil {
			L.Error(ctx, err, s.name+" shutdown")
		}
		scancel()
	}
}

// notifySystemd sends READY=1 when started as a Type=notify unit.
func notifySystemd() error {
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return fmt.Errorf("NOTIFY_SOCKET not set, skipping systemd notify")
	}
	conn, err := net.Dial("unixgram", addr) //nolint:gosec,noctx // addr comes from systemd; unixgram dial has no context variant
	if err != nil {
		return fmt.Errorf("systemd notify failed: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()
	if _, err := conn.Write([]byte("READY=1")); err != nil {
		return fmt.Errorf("systemd notify failed: write failed: %w", err)
	}
	return nil
}
