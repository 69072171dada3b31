package service

import "sync"

// Subscription receives values published to one topic. C is closed when the
// subscription is cancelled or its topic is closed.
type Subscription[T any] struct {
	topic string
	ch    chan T
}

// C returns the receive channel.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Hub fans values out to per-topic subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the value.
type Hub[T any] struct {
	mu     sync.RWMutex
	topics map[string]map[*Subscription[T]]struct{}
}

// NewHub creates an empty Hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{topics: make(map[string]map[*Subscription[T]]struct{})}
}

// Subscribe registers a subscriber on topic with the given channel buffer.
func (h *Hub[T]) Subscribe(topic string, buffer int) *Subscription[T] {
	sub := &Subscription[T]{topic: topic, ch: make(chan T, buffer)}
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*Subscription[T]]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes sub and closes its channel. It is a no-op when the
// subscription was already removed.
func (h *Hub[T]) Unsubscribe(sub *Subscription[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[sub.topic]
	if !ok {
		return
	}
	if _, ok := subs[sub]; !ok {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(h.topics, sub.topic)
	}
}

// Publish delivers value to every subscriber of topic without blocking.
func (h *Hub[T]) Publish(topic string, value T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.topics[topic] {
		select {
		case sub.ch <- value:
		default:
		}
	}
}

// CloseTopic unsubscribes everyone on topic.
func (h *Hub[T]) CloseTopic(topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.topics[topic] {
		close(sub.ch)
	}
	delete(h.topics, topic)
}

// Subscribers returns the number of subscribers on topic.
func (h *Hub[T]) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
