package events

import (
	"sync"
)

// Bus is a lightweight pub/sub broker using channels.
type Bus struct {
	mu   sync.RWMutex
	subs map[Event][]chan any
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[Event][]chan any)}
}

// Subscribe registers a listener for an event and returns the channel and an unsubscribe function.
func (b *Bus) Subscribe(e Event, buffer int) (<-chan any, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan any, buffer)
	b.subs[e] = append(b.subs[e], ch)

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.subs[e]
			for i, c := range subs {
				if c == ch {
					close(c)
					b.subs[e] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
		})
	}

	return ch, unsub
}

// SubscribeAll merges the given topics into one channel of Envelopes.
// The returned function unsubscribes every topic and closes the channel.
func (b *Bus) SubscribeAll(topics []Event, buffer int) (<-chan Envelope, func()) {
	out := make(chan Envelope, buffer)
	var (
		wg     sync.WaitGroup
		unsubs []func()
	)
	for _, topic := range topics {
		ch, unsub := b.Subscribe(topic, buffer)
		unsubs = append(unsubs, unsub)
		wg.Add(1)
		go func(topic Event, ch <-chan any) {
			defer wg.Done()
			for payload := range ch {
				select {
				case out <- Envelope{Event: topic, Payload: payload}:
				default:
				}
			}
		}(topic, ch)
	}
	var once sync.Once
	stop := func() {
		once.Do(func() {
			for _, u := range unsubs {
				u()
			}
			wg.Wait()
			close(out)
		})
	}
	return out, stop
}

// Publish fan-outs the payload to subscribers without blocking.
// A nil Bus is a valid no-op publisher.
func (b *Bus) Publish(e Event, payload any) {
	if b == nil {
		return
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[e] {
		select {
		case ch <- payload:
		default:
			// drop if subscriber is slow; keep broker non-blocking
		}
	}
}
