package ws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"forum-chat/domain/event"
)

func TestSink_DropsWhenFull(t *testing.T) {
	req := require.New(t)
	sink := NewSink(1, nil)
	ctx := context.Background()

	// Given the buffer is already full
	req.NoError(sink.Consume(ctx, event.ProtocolError{Code: "first"}))

	// Then the next event is dropped, not blocked on
	err := sink.Consume(ctx, event.ProtocolError{Code: "second"})
	req.Error(err)

	// And the buffered event is intact
	req.Equal(event.ProtocolError{Code: "first"}, <-sink.Events())
}

func TestSink_DeliversInOrder(t *testing.T) {
	req := require.New(t)
	sink := NewSink(4, nil)
	ctx := context.Background()

	req.NoError(sink.Consume(ctx, event.ProtocolError{Code: "a"}))
	req.NoError(sink.Consume(ctx, event.ProtocolError{Code: "b"}))

	req.Equal(event.ProtocolError{Code: "a"}, <-sink.Events())
	req.Equal(event.ProtocolError{Code: "b"}, <-sink.Events())
}
