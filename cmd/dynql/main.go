// Command dynql inspects a database's schema and runs queries against it.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/zoobzio/dynql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
