package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp()
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", display(err))
		os.Exit(1)
	}
}

// display picks the operator-facing text: client errors carry their own
// message, anything else (flags, config) prints as is.
func display(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiclient.Message(err)
	}
	return err.Error()
}
