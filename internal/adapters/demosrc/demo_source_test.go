package demosrc

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
)

// Jitter bounds are several standard deviations wide; the tests check the
// formula structure and rounding, not exact noise.
func TestFrameFormulaAtStepZero(t *testing.T) {
	src := New(Config{})
	f := src.frame(0)

	if f.Kind != domain.KindSensor {
		t.Fatalf("expected sensor frame, got %s", f.Kind)
	}
	if !f.Demo {
		t.Fatalf("synthetic frames must carry the demo flag")
	}
	if f.ReceivedAt.IsZero() {
		t.Fatalf("frame timestamp must be set")
	}

	assertNear(t, "temp", f.Payload["temp"], 25.0, 6*0.3)
	assertNear(t, "humidity", f.Payload["humidity"], 70.0, 6*0.5)
	assertNear(t, "pressure", f.Payload["pressure"], 1013.25, 6*0.1+0.05)
}

func TestFrameValuesRoundedToOneDecimal(t *testing.T) {
	src := New(Config{})
	for step := 0; step < 50; step++ {
		f := src.frame(step)
		for _, key := range []string{"temp", "humidity", "pressure"} {
			v, ok := f.Payload[key].(float64)
			if !ok {
				t.Fatalf("step %d: %s is not a float", step, key)
			}
			if math.Abs(v*10-math.Round(v*10)) > 1e-9 {
				t.Fatalf("step %d: %s=%v not rounded to one decimal", step, key, v)
			}
		}
	}
}

func TestRunEmitsOnIntervalUntilCancelled(t *testing.T) {
	src := New(Config{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := make(chan *domain.Frame, 16)
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, func(f *domain.Frame) {
			select {
			case frames <- f:
			default:
			}
		})
	}()

	for i := 0; i < 3; i++ {
		select {
		case <-frames:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for synthetic frame %d", i)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("demo source must never report a terminal fault, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop after cancellation")
	}
}

func assertNear(t *testing.T, name string, got any, center, tolerance float64) {
	t.Helper()
	v, ok := got.(float64)
	if !ok {
		t.Fatalf("%s is not a float: %v", name, got)
	}
	if math.Abs(v-center) > tolerance {
		t.Fatalf("%s=%v outside %v±%v", name, v, center, tolerance)
	}
}
