// Command ipea harvests the municipal indicators of 2010 from ipeadata, merges them into
// one table per municipality and writes a descriptive analysis.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/invertedv/ipea/cmd/ipea/app"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.NewRootCommand(version).ExecuteContext(ctx); err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
