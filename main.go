// Package main provides the entrypoint for ncm-webhook-relay.
package main

import (
	"os"

	"github.com/isometry/ncm-webhook-relay/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
