package serverhost

import (
	"context"
	"fmt"
)

// WithClient manages client lifecycle with automatic cleanup.
//
// This helper creates a client, starts it, executes the callback, and stops
// the client when the callback returns. The callback receives a Running
// client whose Transport is available.
//
// If the callback returns an error, it is returned to the caller.
// If Stop fails, a warning is logged but does not override the callback's error.
//
// Example usage:
//
//	err := serverhost.WithClient(ctx, func(c serverhost.Client) error {
//	    return serve(ctx, c.Transport())
//	},
//	    serverhost.WithExecutable("my-server"),
//	    serverhost.WithLogger(log),
//	)
func WithClient(ctx context.Context, fn func(Client) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	client := newClientImpl(options)
	if err := client.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	defer func() {
		if stopErr := client.Stop(context.WithoutCancel(ctx)); stopErr != nil {
			log.Warn("Failed to stop server", "error", stopErr)
		}
	}()

	return fn(client)
}
