// Package main provides a minimal healthcheck binary for the tagging API.
// It calls GET <base>/health and exits with code 0 when the API reports
// status "ok", or code 1 otherwise.
// Usage: healthcheck http://127.0.0.1:8000
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ariyeh/bagtag/pkg/api"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: healthcheck <api-base-url>\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := api.NewClient(os.Args[1], api.WithTimeout(5*time.Second))
	if err := client.Health(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck failed: %v\n", err)
		os.Exit(1)
	}
}
