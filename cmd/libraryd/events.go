package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	jsoniter "github.com/json-iterator/go"
	"github.com/pagevault/library/internal/events"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newEventsCmd() *cobra.Command {
	var queue string
	var keys []string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print library events from RabbitMQ as JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := setup()
			defer log.Sync()

			if cfg.RabbitMQURL == "" {
				return fmt.Errorf("RABBITMQ_URL is not set")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
			consumer, err := events.NewConsumer(cfg.RabbitMQURL, queue, func(ctx context.Context, event events.Event) error {
				log.Debug("Event received", zap.String("event_type", event.EventType), zap.String("event_id", event.EventID))
				return enc.Encode(event)
			}, log)
			if err != nil {
				return err
			}
			defer consumer.Close()

			return consumer.Start(ctx, keys...)
		},
	}
	cmd.Flags().StringVar(&queue, "queue", "", "durable queue name; empty for a temporary queue")
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "routing keys to bind (default: all library events)")
	return cmd
}
