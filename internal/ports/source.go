package ports

import (
	"context"

	"github.com/matsuuchi-sam/SAMDEMO/internal/domain"
)

// EmitFunc hands one decoded Frame to the relay's ingest path.
type EmitFunc func(*domain.Frame)

// Source produces Frames until the context is cancelled. Returning a non-nil
// error while the context is still live reports a terminal ingestion fault;
// the orchestrator reacts with a one-time fallback to the demo generator.
type Source interface {
	Run(ctx context.Context, emit EmitFunc) error
	Name() string
}
