package cmd

import (
	"github.com/isometry/ncm-webhook-relay/internal/config"
)

func lambdaEnvMapString() map[*string]boundEnvVar[string] {
	return map[*string]boundEnvVar[string]{
		&config.Lambda.PayloadType: {
			Name:        "lambda-payload-type",
			Description: "The payload type to expect when running in Lambda mode. Supported values are 'api-gateway-v1', 'api-gateway-v2' and 'lambda-url'",
		},
	}
}
