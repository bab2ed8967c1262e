package main

import (
	"context"
	"log"
	"time"

	samdemo "github.com/matsuuchi-sam/SAMDEMO"
)

// Feeds frames into the relay programmatically: the relay runs in push mode
// and this process acts as the producer, no serial port or websocket needed.
func main() {
	cfg := &samdemo.Config{
		Mode:   samdemo.ModePush,
		Listen: samdemo.ListenConfig{Addr: ":8765"},
	}
	cfg.ApplyDefaults()

	rt, err := samdemo.NewRuntime(cfg)
	if err != nil {
		log.Fatalf("new runtime: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rt.Start(ctx); err != nil {
		log.Fatalf("start relay: %v", err)
	}
	log.Printf("relay listening on %s", rt.Addr())

	pub := rt.Publisher()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for t := range ticker.C {
		err := pub.Publish(samdemo.Frame{
			Kind: samdemo.KindSensor,
			Payload: map[string]any{
				"temp": 20.0 + float64(t.Second()%10),
				"ts":   t.Unix(),
			},
		})
		if err == samdemo.ErrRelayClosed {
			return
		}
		if err != nil {
			log.Printf("publish failed: %v", err)
		}
	}
}
