package safe_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/mnemo-chat/mnemo/pkg/utils/safe"
)

type failingCloser struct{ closed bool }

func (c *failingCloser) Close() error {
	c.closed = true
	return errors.New("already closed")
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	safe.Close(ctx, nil)

	c := &failingCloser{}
	safe.Close(ctx, c)
	gt.Bool(t, c.closed).True()
}

func TestWrite(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	safe.Write(ctx, &buf, []byte("hello"))
	gt.Value(t, buf.String()).Equal("hello")

	safe.Write(ctx, failingWriter{}, []byte("lost"))
	safe.Write(ctx, nil, []byte("ignored"))
}
