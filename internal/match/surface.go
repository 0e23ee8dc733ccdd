package match

import "context"

// SurfaceRef is the opaque, persistable handle to a rendered lobby message.
// The core never interprets it; it only stores it and hands it back to the
// presentation layer.
type SurfaceRef struct {
	MessageID string
	ChannelID string
}

// Surface is the rendering capability for one lobby message, implemented by
// the presentation layer.
type Surface interface {
	Render(ctx context.Context, text string) error
	Delete(ctx context.Context) error
	Ref() SurfaceRef
}

// Presenter creates surfaces for new matches and re-attaches persisted ones
// during startup reconciliation.
type Presenter interface {
	Create(ctx context.Context, channelID, text string) (Surface, error)
	// Attach returns ErrSurfaceGone when the referenced surface cannot be
	// recovered; the caller then decides whether to recreate or drop.
	Attach(ctx context.Context, ref SurfaceRef) (Surface, error)
}
