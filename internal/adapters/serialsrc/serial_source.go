package serialsrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/matsuuchi-sam/SAMDEMO/internal/codec"
	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

// Config captures the serial endpoint details.
type Config struct {
	Port        string        `yaml:"port"`
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

func (c *Config) ApplyDefaults() {
	if c.Baud <= 0 {
		c.Baud = 115200
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = time.Second
	}
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("serial port is required")
	}
	return nil
}

// Source reads newline-delimited telemetry from a serial endpoint. The
// orchestrator runs it on a dedicated goroutine so the blocking byte reads
// never stall connection accept or broadcast delivery.
type Source struct {
	cfg Config
}

func New(cfg Config) (*Source, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Source{cfg: cfg}, nil
}

func (s *Source) Name() string { return "serial" }

// Run opens the port and loops over line reads until the context is
// cancelled. Read timeouts are retried silently; an open failure or an
// unrecoverable I/O fault (device unplugged, port held by another process)
// is returned as a terminal fault.
func (s *Source) Run(ctx context.Context, emit ports.EmitFunc) error {
	port, err := serial.Open(s.cfg.Port, &serial.Mode{BaudRate: s.cfg.Baud})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.cfg.Port, err)
	}
	if err := port.SetReadTimeout(s.cfg.ReadTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("set read timeout on %s: %w", s.cfg.Port, err)
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = port.Close() // unblocks the pending read
		case <-done:
			_ = port.Close()
		}
	}()

	var pending []byte
	buf := make([]byte, 4096)
	for {
		n, err := port.Read(buf)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read serial port %s: %w", s.cfg.Port, err)
		}
		if n == 0 {
			// Read timeout with nothing buffered; not a failure.
			continue
		}

		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			line := pending[:i]
			pending = pending[i+1:]
			if f := codec.Decode(line, time.Now()); f != nil {
				emit(f)
			}
		}
	}
}

var _ ports.Source = (*Source)(nil)
