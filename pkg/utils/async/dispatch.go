package async

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/utils/errutil"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
)

// Dispatch runs task in a new goroutine detached from ctx cancellation. Only
// the logger travels with it. Errors and panics are logged and reported, never
// returned: callers use this for best-effort side work such as caching.
func Dispatch(ctx context.Context, name string, task func(ctx context.Context) error) <-chan struct{} {
	bgCtx := logging.With(context.WithoutCancel(ctx), logging.From(ctx).With(slog.String("task", name)))
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				errutil.Handle(bgCtx, goerr.New("panic in async task", goerr.V("panic", r)), "async task panicked")
			}
		}()

		if err := task(bgCtx); err != nil {
			errutil.Handle(bgCtx, err, "async task failed")
		}
	}()

	return done
}
