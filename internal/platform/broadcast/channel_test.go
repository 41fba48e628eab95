package broadcast

import (
	"testing"
	"time"
)

func TestChannelFanOut(t *testing.T) {
	c := NewChannel()
	defer c.Close()

	sub1, cancel1 := c.Subscribe(4)
	defer cancel1()
	sub2, cancel2 := c.Subscribe(4)
	defer cancel2()

	msg, err := NewMessage("reveal", map[string]string{"userId": "u1"})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	c.Publish(msg)

	for i, sub := range []<-chan Message{sub1, sub2} {
		select {
		case got := <-sub:
			if got.Type != "reveal" {
				t.Fatalf("subscriber %d: type = %q, want reveal", i, got.Type)
			}
			var payload map[string]string
			if err := got.Decode(&payload); err != nil {
				t.Fatalf("subscriber %d: decode: %v", i, err)
			}
			if payload["userId"] != "u1" {
				t.Fatalf("subscriber %d: payload = %v", i, payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no message", i)
		}
	}
}

func TestChannelCancelStopsDelivery(t *testing.T) {
	c := NewChannel()
	defer c.Close()

	sub, cancel := c.Subscribe(1)
	cancel()
	cancel() // idempotent

	if _, open := <-sub; open {
		t.Fatal("expected closed channel after cancel")
	}
	if n := c.SubscriberCount(); n != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", n)
	}

	// Publishing after cancel must not panic.
	c.Publish(Message{Type: "noop"})
}

func TestChannelSlowSubscriberDropsNotBlocks(t *testing.T) {
	c := NewChannel()
	defer c.Close()

	sub, cancel := c.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			c.Publish(Message{Type: "tick"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on full subscriber buffer")
	}

	// Only the buffered message survives.
	if got := <-sub; got.Type != "tick" {
		t.Fatalf("type = %q, want tick", got.Type)
	}
}

func TestChannelCloseUnsubscribesAll(t *testing.T) {
	c := NewChannel()
	sub, _ := c.Subscribe(1)
	c.Close()
	c.Close() // idempotent

	if _, open := <-sub; open {
		t.Fatal("expected closed subscriber channel after Close")
	}
	if sub2, _ := c.Subscribe(1); func() bool { _, open := <-sub2; return open }() {
		t.Fatal("Subscribe after Close should return a closed channel")
	}
}
