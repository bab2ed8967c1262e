package main

import (
	"context"
	"fmt"
	"log"

	samdemo "github.com/matsuuchi-sam/SAMDEMO"
)

func main() {
	flow, err := samdemo.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	callback := func(f samdemo.Frame) error {
		fmt.Printf("%s %s %v\n",
			f.ReceivedAt.Format("15:04:05.000"),
			f.Kind,
			f.Payload,
		)
		return nil
	}

	if err := flow.Run(ctx, samdemo.OutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("relay error: %v", err)
	}
}
