package cmd

import (
	"time"

	"github.com/isometry/ncm-webhook-relay/internal/config"
	"github.com/isometry/ncm-webhook-relay/internal/helpers"
)

func svcEnvMapString() map[*string]boundEnvVar[string] {
	return map[*string]boundEnvVar[string]{
		&config.Service.Addr: {
			Name:        "service-host-addr",
			Description: "The address to serve the service on (default all interfaces in dual-stack mode)",
			Short:       helpers.Ptr("H"),
		},
		&config.Service.Port: {
			Name:        "service-host-port",
			Description: "The port to serve the service on",
			Short:       helpers.Ptr("p"),
		},
		&config.Service.MetricsPath: {
			Name:        "service-metrics-path",
			Description: "The path Prometheus metrics are served on. Empty disables the endpoint",
		},
	}
}

func svcEnvMapDuration() map[*time.Duration]boundEnvVar[time.Duration] {
	return map[*time.Duration]boundEnvVar[time.Duration]{
		&config.Service.Timeout: {
			Name:        "service-io-timeout",
			Description: "The timeout for I/O operations",
			Short:       helpers.Ptr("t"),
		},
	}
}
