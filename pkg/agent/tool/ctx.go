package tool

import (
	"context"
	"sync"

	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
)

// UpdateFunc reports tool progress, e.g. as a streamed status line in the chat UI
type UpdateFunc func(ctx context.Context, message string)

type updateKey struct{}

// WithUpdate returns a context whose tools report progress to fn
func WithUpdate(ctx context.Context, fn UpdateFunc) context.Context {
	return context.WithValue(ctx, updateKey{}, fn)
}

// Update reports message to the UpdateFunc in ctx. Without one it does nothing.
func Update(ctx context.Context, message string) {
	if fn, ok := ctx.Value(updateKey{}).(UpdateFunc); ok {
		fn(ctx, message)
	}
}

// Recorder keeps the progress of a single tool run so it can be returned with
// the result, and logs each message as it arrives.
type Recorder struct {
	Tool string

	mu       sync.Mutex
	messages []string
}

// Update is an UpdateFunc
func (r *Recorder) Update(ctx context.Context, message string) {
	r.mu.Lock()
	r.messages = append(r.messages, message)
	r.mu.Unlock()

	logging.From(ctx).Info("tool progress", "tool", r.Tool, "message", message)
}

// Messages returns the recorded progress in arrival order
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}
