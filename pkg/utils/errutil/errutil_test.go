package errutil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	ctx := context.Background()
	gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))

	err := goerr.New("boom", goerr.V("key", "value"))
	gt.Value(t, errutil.Handle(ctx, err, "failed")).Equal(error(err))
}

func TestHandleHTTP(t *testing.T) {
	t.Run("writes status and message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("bad input"), http.StatusBadRequest)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		gt.String(t, w.Body.String()).Contains("bad input")
	})

	t.Run("nil error writes nothing", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, nil, http.StatusInternalServerError)
		gt.Value(t, w.Body.Len()).Equal(0)
	})
}

func TestHandle_ReportsValuesToSentry(t *testing.T) {
	var events []*sentry.Event
	client, err := sentry.NewClient(sentry.ClientOptions{
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			events = append(events, event)
			return nil
		},
	})
	gt.NoError(t, err).Required()
	hub := sentry.NewHub(client, sentry.NewScope())
	ctx := sentry.SetHubOnContext(context.Background(), hub)

	errutil.Handle(ctx, goerr.New("boom", goerr.V("memory_id", "m1")), "failed")

	gt.Array(t, events).Length(1).Required()
	gt.Value(t, events[0].Tags["message"]).Equal("failed")
	gt.Value(t, events[0].Contexts["error_values"]["memory_id"]).Equal(any("m1"))
}
