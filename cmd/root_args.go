package cmd

import (
	"time"

	"github.com/isometry/ncm-webhook-relay/internal/config"
	"github.com/isometry/ncm-webhook-relay/internal/helpers"
)

func envMapString() map[*string]boundEnvVar[string] {
	return map[*string]boundEnvVar[string]{
		&config.Global.Mode: {
			Name:        "mode",
			Description: "The application runtime mode. Possible values are 'service' and 'lambda-http'",
			Short:       helpers.Ptr("m"),
			Env:         helpers.Ptr("MODE"),
		},
		&config.Listener.Webhook.Endpoint: {
			Name:        "webhook-endpoint",
			Description: "The HTTP path the NCM webhook is served on",
			Short:       helpers.Ptr("P"),
		},
		&config.Archive.S3.Bucket: {
			Name:        "archive-s3-bucket",
			Description: "The S3 bucket raw webhook payloads are archived to",
		},
		&config.Forward.Kafka.Topic: {
			Name:        "forward-kafka-topic",
			Description: "The Kafka topic order status changes are forwarded to",
		},
		&config.Forward.RabbitMQ.URL: {
			Name:        "forward-rabbitmq-url",
			Description: "The AMQP URL of the RabbitMQ broker",
			Hidden:      true,
		},
		&config.Forward.RabbitMQ.Queue: {
			Name:        "forward-rabbitmq-queue",
			Description: "The RabbitMQ queue order status changes are forwarded to",
		},
		&config.SSM.Parameter: {
			Name:        "ssm-parameter",
			Description: "The SSM parameter holding a YAML configuration overlay. Empty disables the overlay",
			Env:         helpers.Ptr("CONFIG_SSM_PARAMETER"),
		},
	}
}

func envMapBool() map[*bool]boundEnvVar[bool] {
	return map[*bool]boundEnvVar[bool]{
		&config.Global.Logging.CallerTrace: {
			Name:        "verbosity-caller-trace",
			Description: "Enable caller trace in logs",
			Short:       helpers.Ptr("V"),
		},
		&config.Listener.Enabled: {
			Name:        "listener-enabled",
			Description: "Enable the webhook listener. When disabled every webhook is answered with 503",
		},
		&config.Listener.Events.PublishEvents: {
			Name:        "events-publish",
			Description: "Publish order status changes to subscribers",
		},
		&config.Listener.Logging.LogAllWebhooks: {
			Name:        "log-all-webhooks",
			Description: "Log a summary line for every processed webhook",
		},
		&config.Archive.S3.Enabled: {
			Name:        "archive-s3",
			Description: "Archive raw webhook payloads to S3",
		},
		&config.Forward.Kafka.Enabled: {
			Name:        "forward-kafka",
			Description: "Forward order status changes to Kafka",
		},
		&config.Forward.RabbitMQ.Enabled: {
			Name:        "forward-rabbitmq",
			Description: "Forward order status changes to RabbitMQ",
		},
	}
}

func envMapInt() map[*int]boundEnvVar[int] {
	return map[*int]boundEnvVar[int]{
		&config.Global.Logging.Verbosity: {
			Name:        "verbosity",
			Description: "Increase logger verbosity (default WarnLevel)",
			Short:       helpers.Ptr("v"),
			Count:       true,
		},
		&config.Listener.Webhook.MaxOrderIDsPerRequest: {
			Name:        "webhook-max-order-ids",
			Description: "The maximum number of order ids processed from a single webhook",
		},
		&config.Listener.Workers.Count: {
			Name:        "workers",
			Description: "The number of background workers processing accepted webhooks",
		},
		&config.Listener.Workers.QueueSize: {
			Name:        "workers-queue-size",
			Description: "The number of accepted webhooks that may wait for a worker",
		},
	}
}

func envMapInt64() map[*int64]boundEnvVar[int64] {
	return map[*int64]boundEnvVar[int64]{
		&config.Listener.Webhook.MaxBodyBytes: {
			Name:        "webhook-max-body-bytes",
			Description: "The maximum accepted webhook body size in bytes",
		},
	}
}

func envMapDuration() map[*time.Duration]boundEnvVar[time.Duration] {
	return map[*time.Duration]boundEnvVar[time.Duration]{
		&config.Listener.Workers.SubmitTimeout: {
			Name:        "workers-submit-timeout",
			Description: "How long an accepted webhook may wait for room in the worker queue",
		},
	}
}

func envMapStringSlice() map[*[]string]boundEnvVar[[]string] {
	return map[*[]string]boundEnvVar[[]string]{
		&config.Forward.Kafka.Brokers: {
			Name:        "forward-kafka-brokers",
			Description: "The Kafka bootstrap brokers",
		},
	}
}
