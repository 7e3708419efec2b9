// Command tvremote serves the simulated TV line protocol and drives it from
// the terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rbright/tvremote/internal/app"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run stops a running server or console on SIGINT or SIGTERM.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.Execute(ctx, args, os.Stdout, os.Stderr)
}
