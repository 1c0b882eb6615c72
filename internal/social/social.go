// Package social posts analysis text to an outward channel. Posting is
// fire-and-forget from the pipelines' perspective: failures are logged by
// the caller and never retried.
package social

import "context"

// Poster sends one piece of text to the channel.
type Poster interface {
	Post(ctx context.Context, text string) error
}

// NoopPoster discards posts. Used when no channel is configured.
type NoopPoster struct{}

func (NoopPoster) Post(context.Context, string) error { return nil }

var _ Poster = NoopPoster{}
