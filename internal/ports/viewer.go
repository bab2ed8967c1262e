package ports

import "github.com/matsuuchi-sam/SAMDEMO/internal/domain"

// Viewer is one registered fan-out recipient. wire is the frame encoded once
// per broadcast pass; implementations must not retain it past the call.
type Viewer interface {
	Send(f *domain.Frame, wire []byte) error
	Addr() string
}
