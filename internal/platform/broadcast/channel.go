package broadcast

import (
	"sync"

	sonic "github.com/bytedance/sonic"
)

// Message is the envelope fanned out to every subscribed context. Payload is
// pre-encoded JSON so receivers can re-apply it idempotently without knowing
// the concrete type.
type Message struct {
	Type    string `json:"type"`
	Payload []byte `json:"payload,omitempty"`
}

// NewMessage encodes payload and wraps it with the given type tag.
func NewMessage(msgType string, payload any) (Message, error) {
	if payload == nil {
		return Message{Type: msgType}, nil
	}
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Payload: raw}, nil
}

// Decode unmarshals the payload into out.
func (m Message) Decode(out any) error {
	if len(m.Payload) == 0 {
		return nil
	}
	return sonic.Unmarshal(m.Payload, out)
}

// Channel is an in-process fan-out publish/subscribe primitive. It stands in
// for the origin-scoped broadcast collaborator: every subscriber sees every
// published message, delivery order across subscribers is not guaranteed, and
// a slow subscriber drops messages rather than blocking publishers.
type Channel struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Message
	closed bool
}

func NewChannel() *Channel {
	return &Channel{subs: make(map[int]chan Message)}
}

// Publish delivers msg to every current subscriber. Subscribers whose buffers
// are full miss the message; receivers are expected to treat messages as full
// state replacements so a missed message is repaired by the next one.
func (c *Channel) Publish(msg Message) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return
	}
	for _, ch := range c.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Subscribe registers a receiver and returns its channel plus a cancel
// function. The buffer absorbs bursts; sizing below 1 is coerced to 1.
func (c *Channel) Subscribe(buffer int) (<-chan Message, func()) {
	if buffer < 1 {
		buffer = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		ch := make(chan Message)
		close(ch)
		return ch, func() {}
	}

	id := c.nextID
	c.nextID++
	ch := make(chan Message, buffer)
	c.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}

	return ch, cancel
}

// Close tears down every subscription. Publish becomes a no-op.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// SubscriberCount reports the number of live subscriptions.
func (c *Channel) SubscriberCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}
