package demosrc

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

// Config tunes the synthetic generator.
type Config struct {
	Interval time.Duration `yaml:"interval"`
}

func (c *Config) ApplyDefaults() {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
}

// Source emits one synthetic sensor Frame per interval: three independent
// sinusoids with additive Gaussian jitter, so output stays bounded and
// characteristically smooth. It never reports a terminal fault, which makes
// it the safe landing spot for the orchestrator's fallback transition.
type Source struct {
	cfg Config
	rng *rand.Rand
}

func New(cfg Config) *Source {
	cfg.ApplyDefaults()
	return &Source{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Source) Name() string { return "demo" }

func (s *Source) Run(ctx context.Context, emit ports.EmitFunc) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for t := 0; ; t++ {
		emit(s.frame(t))
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// frame computes step t of the generator:
//
//	temperature = 25.0   + 5.0·sin(0.1·t)   + N(0, 0.3)
//	humidity    = 60.0   + 10.0·cos(0.07·t) + N(0, 0.5)
//	pressure    = 1013.25 + 2.0·sin(0.03·t) + N(0, 0.1)
//
// each rounded to one decimal place.
func (s *Source) frame(t int) *domain.Frame {
	ft := float64(t)
	now := time.Now()
	return &domain.Frame{
		Kind: domain.KindSensor,
		Payload: map[string]any{
			"temp":     round1(25.0 + 5.0*math.Sin(0.1*ft) + s.rng.NormFloat64()*0.3),
			"humidity": round1(60.0 + 10.0*math.Cos(0.07*ft) + s.rng.NormFloat64()*0.5),
			"pressure": round1(1013.25 + 2.0*math.Sin(0.03*ft) + s.rng.NormFloat64()*0.1),
			"ts":       now.Unix(),
		},
		ReceivedAt: now,
		Demo:       true,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

var _ ports.Source = (*Source)(nil)
