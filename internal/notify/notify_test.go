package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStreamDeliversInOrder(t *testing.T) {
	stream := NewStream(4)
	stream.Publish(context.Background(), Notification{Kind: KindSuccess, Message: "one"})
	stream.Publish(context.Background(), Notification{Kind: KindFailure, Message: "two"})

	first := <-stream.Events()
	second := <-stream.Events()
	require.Equal(t, "one", first.Message)
	require.Equal(t, KindSuccess, first.Kind)
	require.Equal(t, "two", second.Message)
	require.Equal(t, KindFailure, second.Kind)
}

func TestStreamDropsOldestWhenFull(t *testing.T) {
	stream := NewStream(2)
	for i, msg := range []string{"a", "b", "c", "d"} {
		_ = i
		stream.Publish(context.Background(), Notification{Kind: KindSuccess, Message: msg})
	}

	require.Equal(t, "c", (<-stream.Events()).Message)
	require.Equal(t, "d", (<-stream.Events()).Message)
	select {
	case n := <-stream.Events():
		t.Fatalf("unexpected extra notification: %+v", n)
	default:
	}
}

func TestStreamMinimumBuffer(t *testing.T) {
	stream := NewStream(0)
	stream.Publish(context.Background(), Notification{Message: "only"})
	require.Equal(t, "only", (<-stream.Events()).Message)
}

func TestFanoutPublishesToAllSinks(t *testing.T) {
	var got []string
	record := func(tag string) Sink {
		return SinkFunc(func(_ context.Context, n Notification) {
			got = append(got, tag+":"+n.Message)
		})
	}

	fan := Fanout{record("a"), nil, record("b")}
	fan.Publish(context.Background(), Notification{Message: "x"})
	require.Equal(t, []string{"a:x", "b:x"}, got)
}

func TestDiscardIsSafe(t *testing.T) {
	require.NotPanics(t, func() {
		Discard.Publish(context.Background(), Notification{Message: "ignored"})
	})
}
