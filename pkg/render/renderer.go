package render

import (
	"context"

	"github.com/goliatone/go-releaseform/pkg/controller"
)

// Renderer converts a controller snapshot into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, snap controller.Snapshot, options RenderOptions) ([]byte, error)
}
