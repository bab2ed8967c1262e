package serialsrc

import (
	"context"
	"testing"
	"time"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Port: "/dev/ttyUSB0"}
	cfg.ApplyDefaults()
	if cfg.Baud != 115200 {
		t.Fatalf("expected default baud 115200, got %d", cfg.Baud)
	}
	if cfg.ReadTimeout != time.Second {
		t.Fatalf("expected default read timeout 1s, got %s", cfg.ReadTimeout)
	}
}

func TestNewRequiresPort(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for missing port")
	}
}

func TestRunReportsTerminalFaultOnOpenFailure(t *testing.T) {
	src, err := New(Config{Port: "/dev/samdemo-no-such-port"})
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- src.Run(ctx, func(*domain.Frame) {})
	}()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("expected terminal fault for unreachable endpoint")
		}
	case <-ctx.Done():
		t.Fatalf("Run did not report the open failure promptly")
	}
}
