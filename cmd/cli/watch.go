package main

import (
	"bufio"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/libdesk/internal/session"
)

// watchCmd keeps the session monitor running in the foreground. Each line read from stdin
// counts as user activity.
func watchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the session alive while you work; press Enter when warned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			id, _, err := a.requireSession(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Watching session of %s (%s)\n", id.Name, a.sess.State())
			return watch(ctx, a)
		},
	}
}

func watch(ctx context.Context, a *app) error {
	ended := make(chan struct{})
	var endOnce sync.Once
	bus := a.sess.Bus()

	onWarn := func(left time.Duration) {
		fmt.Fprintf(a.out, "Your session expires in %s. Press Enter to stay signed in.\n", left.Round(time.Second))
	}
	onState := func(s session.State) {
		fmt.Fprintf(a.out, "session %s\n", s)
	}
	onNavigate := func(route string) {
		if route == session.RouteLogin {
			endOnce.Do(func() { close(ended) })
		}
	}
	for topic, fn := range map[string]any{
		session.TopicWarning:  onWarn,
		session.TopicState:    onState,
		session.TopicNavigate: onNavigate,
	} {
		if err := bus.Subscribe(topic, fn); err != nil {
			return err
		}
		defer func(topic string, fn any) { _ = bus.Unsubscribe(topic, fn) }(topic, fn)
	}

	lines := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(a.in)
		for sc.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	a.sess.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			a.sess.Close()
			return nil
		case <-ended:
			a.sess.Close()
			fmt.Fprintln(a.out, "Signed out")
			return nil
		case <-lines:
			if err := a.sess.Activity(ctx); err != nil {
				a.log.Warn("activity refresh", zap.Error(err))
			}
		}
	}
}
