package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GHILLIExSTEW/sportfeed/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ingestor: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	err = a.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
