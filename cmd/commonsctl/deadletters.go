package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/lllypuk/commons/internal/config"
	"github.com/lllypuk/commons/internal/infrastructure/eventbus"
)

const redisPingTimeout = 5 * time.Second

// deadLetterQueue is the part of eventbus.DeadLetterHandler the commands use.
type deadLetterQueue interface {
	Peek(ctx context.Context, count int64) ([]eventbus.DeadLetterEntry, error)
	Len(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

func newDeadLettersCmd(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deadletters",
		Aliases: []string{"dlq"},
		Short:   "Inspect events whose handlers gave up",
	}

	// withQueue opens the configured queue for the duration of run.
	withQueue := func(run func(cmd *cobra.Command, q deadLetterQueue) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			q, closeFn, err := openDeadLetters(cmd.Context(), *cfgFile)
			if err != nil {
				return err
			}
			defer closeFn()
			return run(cmd, q)
		}
	}

	var count int64
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the most recent dead letters as JSON lines",
		Args:  cobra.NoArgs,
		RunE: withQueue(func(cmd *cobra.Command, q deadLetterQueue) error {
			entries, err := q.Peek(cmd.Context(), count)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, entry := range entries {
				if err := enc.Encode(entry); err != nil {
					return err
				}
			}
			return nil
		}),
	}
	list.Flags().Int64Var(&count, "count", 10, "number of entries to show")

	length := &cobra.Command{
		Use:   "count",
		Short: "Print the number of dead letters",
		Args:  cobra.NoArgs,
		RunE: withQueue(func(cmd *cobra.Command, q deadLetterQueue) error {
			n, err := q.Len(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), n)
			return err
		}),
	}

	purge := &cobra.Command{
		Use:   "clear",
		Short: "Drop every dead letter",
		Args:  cobra.NoArgs,
		RunE: withQueue(func(cmd *cobra.Command, q deadLetterQueue) error {
			if err := q.Clear(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "dead letter queue cleared")
			return err
		}),
	}

	cmd.AddCommand(list, length, purge)
	return cmd
}

func openDeadLetters(ctx context.Context, cfgFile string) (deadLetterQueue, func(), error) {
	cfg, err := config.LoadFromPath(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if !strings.EqualFold(cfg.EventBus.Backend, config.EventBusRedis) {
		return nil, nil, fmt.Errorf("dead letters need the redis event bus, configured backend is %q",
			cfg.EventBus.Backend)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err = client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	q := eventbus.NewDeadLetterHandler(client, eventbus.WithDeadLetterQueueKey(cfg.EventBus.DeadLetterKey))
	return q, func() { _ = client.Close() }, nil
}
