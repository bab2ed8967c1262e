package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	samdemo "github.com/matsuuchi-sam/SAMDEMO"
)

func main() {
	flow, err := samdemo.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := flow.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("relay exited: %v", err)
	}
}
