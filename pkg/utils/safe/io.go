package safe

import (
	"context"
	"io"
	"log/slog"

	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
)

// Close closes closer and logs the failure. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", slog.Any("error", err))
	}
}

// Write writes data to w and logs the failure. Used for response bodies where
// the client may already be gone.
func Write(ctx context.Context, w io.Writer, data []byte) {
	if w == nil {
		return
	}
	if _, err := w.Write(data); err != nil {
		logging.From(ctx).Warn("failed to write", slog.Any("error", err), slog.Int("size", len(data)))
	}
}
