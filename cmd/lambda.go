package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/isometry/ncm-webhook-relay/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// lambdaDrainTimeout fits the grace period Lambda grants after SIGTERM.
const lambdaDrainTimeout = 450 * time.Millisecond

func cmdLambda() *cobra.Command {
	cmd := &cobra.Command{
		Use: "lambda",
	}
	cmd.AddCommand(cmdLambdaHTTP())

	return cmd
}

func cmdLambdaHTTP() *cobra.Command {
	// cmd is the command for running the lambda-http mode.
	cmd := &cobra.Command{
		Use: "http",
		PreRun: func(_ *cobra.Command, _ []string) {
			config.Global.Mode = config.ModeLambdaHTTP
			initLogger()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLambdaHTTP(cmd)
		},
	}

	return cmd
}

func runLambdaHTTP(cmd *cobra.Command) error {
	r, err := newRelay(cmd.Context())
	if err != nil {
		return errors.Wrap(err, "failed to setup lambda")
	}

	logger.Info("lambda starting...", slog.String("payloadType", config.Lambda.PayloadType))
	lambda.StartWithOptions(r.runtime.Lambda,
		lambda.WithContext(cmd.Context()),
		lambda.WithEnableSIGTERM(func() {
			ctx, cancel := context.WithTimeout(context.Background(), lambdaDrainTimeout)
			defer cancel()
			if err := r.Close(ctx); err != nil {
				logger.Error("failed to drain relay", slog.Any("error", err))
			}
		}))

	return nil
}
