package channel

import (
	"context"

	"photoscribe/pkg/dispatch"
	"photoscribe/pkg/media"
)

// Handler processes one classified inbound event.
type Handler func(context.Context, dispatch.Event) error

// Adapter is one chat transport: it produces events, delivers replies, and
// resolves photo references to bytes.
type Adapter interface {
	dispatch.Replier
	media.Fetcher

	Name() string
	Run(context.Context, Handler) error
}
