package broker

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestDispatchRoutesToRegisteredHandler(t *testing.T) {
	r := NewRegistry(nil)
	var gotQueue string
	var gotBody string
	r.Register("orders", func(ctx context.Context, queue string, body []byte) error {
		gotQueue = queue
		gotBody = string(body)
		return nil
	})

	if err := r.Dispatch(context.Background(), "orders", []byte("payload")); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if gotQueue != "orders" || gotBody != "payload" {
		t.Fatalf("handler saw queue=%q body=%q", gotQueue, gotBody)
	}
}

func TestDispatchUnknownQueueDropsMessage(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Dispatch(context.Background(), "nobody-home", []byte("x")); err != nil {
		t.Fatalf("unregistered queue must drop, not fail: %v", err)
	}
}

func TestDispatchPropagatesHandlerError(t *testing.T) {
	r := NewRegistry(nil)
	boom := errors.New("boom")
	r.Register("q", func(ctx context.Context, queue string, body []byte) error { return boom })

	if err := r.Dispatch(context.Background(), "q", nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestApplyRunsRegistrationsInOrderAndStopsOnError(t *testing.T) {
	r := NewRegistry(nil)
	boom := errors.New("bad registration")
	var third bool

	err := r.Apply(
		func(r *Registry) error {
			r.Register("a", func(ctx context.Context, queue string, body []byte) error { return nil })
			return nil
		},
		func(r *Registry) error { return boom },
		func(r *Registry) error {
			third = true
			return nil
		},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if third {
		t.Fatal("registration after a failure must not run")
	}
	if _, ok := r.handlers["a"]; !ok {
		t.Fatal("earlier registration must stick")
	}
}

func TestResolveRoutesByCorrelationID(t *testing.T) {
	rr := &RequestReply{pending: make(map[string]chan []byte)}
	waiter := make(chan []byte, 1)
	rr.pending["corr-1"] = waiter

	rr.resolve(amqp.Delivery{CorrelationId: "corr-1", Body: []byte(`{"ok":true}`)})

	select {
	case body := <-waiter:
		if string(body) != `{"ok":true}` {
			t.Fatalf("unexpected body %q", body)
		}
	default:
		t.Fatal("waiter did not receive the reply")
	}
	if _, ok := rr.pending["corr-1"]; ok {
		t.Fatal("resolved correlation id must be removed")
	}
}

func TestResolveDropsUnmatchedReply(t *testing.T) {
	rr := &RequestReply{pending: make(map[string]chan []byte)}
	rr.resolve(amqp.Delivery{CorrelationId: "ghost", Body: []byte("x")})
	if len(rr.pending) != 0 {
		t.Fatal("unmatched reply must leave no pending state")
	}
}
