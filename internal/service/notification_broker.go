package service

import (
	"sync"

	"github.com/noah-isme/gema-classroom-api/internal/dto"
)

const (
	notificationBufferSize = 16
	relayedWindowSize      = 512
)

// notificationBroker fans notifications out to the SSE streams open on this node.
type notificationBroker struct {
	mu          sync.RWMutex
	subscribers map[uint]map[chan dto.NotificationResponse]struct{}

	relayMu sync.Mutex
	relayed map[uint]struct{}
	order   []uint
}

func newNotificationBroker() *notificationBroker {
	return &notificationBroker{
		subscribers: make(map[uint]map[chan dto.NotificationResponse]struct{}),
		relayed:     make(map[uint]struct{}, relayedWindowSize),
	}
}

// firstRelay reports whether a remote notification id has not been delivered yet.
// Only the most recent relayedWindowSize ids are remembered.
func (b *notificationBroker) firstRelay(id uint) bool {
	b.relayMu.Lock()
	defer b.relayMu.Unlock()

	if _, seen := b.relayed[id]; seen {
		return false
	}
	if len(b.order) == relayedWindowSize {
		delete(b.relayed, b.order[0])
		b.order = b.order[1:]
	}
	b.relayed[id] = struct{}{}
	b.order = append(b.order, id)
	return true
}

func (b *notificationBroker) subscribe(userID uint) chan dto.NotificationResponse {
	ch := make(chan dto.NotificationResponse, notificationBufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.NotificationResponse]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
	return ch
}

func (b *notificationBroker) unsubscribe(userID uint, ch chan dto.NotificationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, ok := b.subscribers[userID]
	if !ok {
		return
	}
	if _, ok := subscribers[ch]; !ok {
		return
	}
	delete(subscribers, ch)
	close(ch)
	if len(subscribers) == 0 {
		delete(b.subscribers, userID)
	}
}

// broadcast drops the notification for subscribers whose buffer is full.
func (b *notificationBroker) broadcast(userID uint, notification dto.NotificationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- notification:
		default:
		}
	}
}
