package pushsrc

import (
	"context"

	"github.com/matsuuchi-sam/SAMDEMO/internal/ports"
)

// Source is the network-push run mode: the relay itself polls nothing and
// waits for connections the classifier marks as producers to feed the ingest
// path. Run blocks until cancelled and never faults.
type Source struct{}

func New() *Source { return &Source{} }

func (*Source) Name() string { return "push" }

func (*Source) Run(ctx context.Context, _ ports.EmitFunc) error {
	<-ctx.Done()
	return nil
}

var _ ports.Source = (*Source)(nil)
