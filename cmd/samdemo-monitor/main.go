package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"
)

func main() {
	fs := flag.NewFlagSet("samdemo-monitor", flag.ExitOnError)
	baud := fs.Int("baud", 115200, "Serial baud rate")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("samdemo-monitor: %v", err)
	}

	if fs.NArg() == 0 {
		if err := listPorts(); err != nil {
			log.Fatalf("samdemo-monitor: %v", err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := monitor(ctx, fs.Arg(0), *baud); err != nil {
		log.Fatalf("samdemo-monitor: %v", err)
	}
}

func listPorts() error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("list serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return nil
	}
	fmt.Println("available serial ports:")
	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}
	return nil
}

func monitor(ctx context.Context, portName string, baud int) error {
	port, err := serial.Open(portName, &serial.Mode{BaudRate: baud})
	if err != nil {
		return fmt.Errorf("open %s: %w", portName, err)
	}
	defer port.Close()

	// Closing the port unblocks the scanner when the context ends.
	go func() {
		<-ctx.Done()
		_ = port.Close()
	}()

	fmt.Printf("monitoring %s at %d baud (Ctrl+C to stop)\n", portName, baud)

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05.000"), scanner.Text())
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read %s: %w", portName, err)
	}
	return nil
}
