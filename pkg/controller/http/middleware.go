package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
)

// DefaultRequesterHeader carries the authenticated user ID set by the
// upstream gateway
const DefaultRequesterHeader = "X-Mnemo-User-ID"

type ctxRequesterKey struct{}

func contextWithRequester(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxRequesterKey{}, userID)
}

func requesterFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequesterKey{}).(string); ok {
		return v
	}
	return ""
}

// requesterMiddleware rejects requests without a requester and attaches the
// requester to the context and the request logger
func requesterMiddleware(header string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(header))
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "requester is required")
				return
			}

			ctx := contextWithRequester(r.Context(), userID)
			ctx = logging.With(ctx, logging.From(ctx).With(slog.String("requester", userID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
