package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func testConsumer() *Consumer {
	return &Consumer{
		workers:    1,
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		backoff:    time.Millisecond,
		maxBackoff: 4 * time.Millisecond,
	}
}

func TestProcess_RetriesUntilHandlerSucceeds(t *testing.T) {
	c := testConsumer()
	calls := 0
	h := func(context.Context, kafka.Message) error {
		calls++
		if calls < 3 {
			return errors.New("inbox unavailable")
		}
		return nil
	}

	assert.True(t, c.process(context.Background(), h, kafka.Message{Topic: "orders.updated", Offset: 9}))
	assert.Equal(t, 3, calls, "a failed message is retried, never skipped")
}

func TestProcess_StopsWhenContextEnds(t *testing.T) {
	c := testConsumer()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	h := func(context.Context, kafka.Message) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("inbox unavailable")
	}

	assert.False(t, c.process(ctx, h, kafka.Message{}), "offset must not be committed")
	assert.Equal(t, 2, calls)
}
