package mediator

import (
	"context"
	"errors"
	"testing"
)

func TestSendDispatchesToRegisteredHandler(t *testing.T) {
	m := New(nil)
	err := m.RegisterCommand("users.create", func(ctx context.Context, cmd any) (any, error) {
		return cmd.(string) + "-done", nil
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	m.Freeze()

	out, err := m.Send(context.Background(), "users.create", "cmd")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out != "cmd-done" {
		t.Fatalf("expected cmd-done, got %v", out)
	}
}

func TestSendUnknownCommand(t *testing.T) {
	m := New(nil)
	m.Freeze()
	if _, err := m.Send(context.Background(), "nope", nil); !errors.Is(err, ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestRegisterCommandRejectsDuplicates(t *testing.T) {
	m := New(nil)
	h := func(ctx context.Context, cmd any) (any, error) { return nil, nil }
	if err := m.RegisterCommand("users.create", h); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := m.RegisterCommand("users.create", h); !errors.Is(err, ErrDuplicateCommand) {
		t.Fatalf("expected ErrDuplicateCommand, got %v", err)
	}
}

func TestRegistrationClosedAfterFreeze(t *testing.T) {
	m := New(nil)
	m.Freeze()
	h := func(ctx context.Context, cmd any) (any, error) { return nil, nil }
	if err := m.RegisterCommand("late", h); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
	if err := m.RegisterNotification("late", func(ctx context.Context, note any) error { return nil }); !errors.Is(err, ErrFrozen) {
		t.Fatalf("expected ErrFrozen, got %v", err)
	}
}

func TestPublishRunsAllHandlersInOrder(t *testing.T) {
	m := New(nil)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		if err := m.RegisterNotification("users.created", func(ctx context.Context, note any) error {
			order = append(order, i)
			return nil
		}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	m.Freeze()

	if err := m.Publish(context.Background(), "users.created", nil); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Fatalf("expected registration order, got %v", order)
	}
}

func TestPublishContinuesPastFailures(t *testing.T) {
	m := New(nil)
	boom := errors.New("boom")
	var ran bool
	_ = m.RegisterNotification("n", func(ctx context.Context, note any) error { return boom })
	_ = m.RegisterNotification("n", func(ctx context.Context, note any) error {
		ran = true
		return nil
	})
	m.Freeze()

	err := m.Publish(context.Background(), "n", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error containing boom, got %v", err)
	}
	if !ran {
		t.Fatal("later handler must still run after an earlier failure")
	}
}

func TestPublishWithoutHandlersIsNoop(t *testing.T) {
	m := New(nil)
	m.Freeze()
	if err := m.Publish(context.Background(), "unheard", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
