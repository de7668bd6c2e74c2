package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/config"
	"github.com/iliyamo/parking-gate-control/internal/logging"
	"github.com/iliyamo/parking-gate-control/internal/queue"
)

var auditDir string

var auditConsumerCmd = &cobra.Command{
	Use:   "audit-consumer",
	Short: "Append dispatched gate commands from RabbitMQ to a log file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.RabbitMQURL == "" {
			return errors.New("RABBITMQ_URL is not set")
		}
		log := logging.Must(cfg.Production())
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log.Info("audit-consumer: started", zap.String("queue", queue.CommandDispatchedQueue), zap.String("dir", auditDir))
		c := &queue.AuditConsumer{URL: cfg.RabbitMQURL, Dir: auditDir, Log: log}
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	auditConsumerCmd.Flags().StringVar(&auditDir, "dir", "logs", "directory for gate.log")
	rootCmd.AddCommand(auditConsumerCmd)
}
