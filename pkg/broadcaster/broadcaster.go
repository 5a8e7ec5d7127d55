package broadcaster

import (
	"sync/atomic"
	"time"

	"github.com/ishaanzatey/incident-handler/pkg/logger"
)

// Processing event types pushed to dashboard subscribers.
const (
	EventConnection         = "connection"
	EventExecutionStarted   = "execution_started"
	EventIncidentProcessing = "incident_processing"
	EventRuleMatched        = "rule_matched"
	EventIncidentResolved   = "incident_resolved"
	EventIncidentSkipped    = "incident_skipped"
	EventErrorOccurred      = "error_occurred"
	EventExecutionCompleted = "execution_completed"
)

// commandBuffer sizes the hub's command channel. Emitters never block: when
// the buffer is full the event is dropped (fire-and-forget, no queuing or
// replay guarantees).
const commandBuffer = 256

// Envelope is the timestamped message delivered to every subscriber.
type Envelope struct {
	// Type is the processing event name
	Type string `json:"type"`

	// Timestamp is the emit time in ISO-8601
	Timestamp string `json:"timestamp"`

	// Data is the event-specific payload
	Data interface{} `json:"data"`
}

// Subscriber receives broadcast envelopes. A Send error marks the subscriber
// dead; the hub silently drops it from the active set.
type Subscriber interface {
	Send(Envelope) error
}

type commandKind int

const (
	cmdSubscribe commandKind = iota
	cmdUnsubscribe
	cmdEmit
)

type command struct {
	kind       commandKind
	subscriber Subscriber
	envelope   Envelope
}

// Hub fans processing events out to the currently-subscribed dashboard
// viewers. A single goroutine owns the subscriber set and drains a command
// channel, so pipeline goroutines never touch connections directly and a
// slow or failed subscriber never blocks incident processing.
type Hub struct {
	commands chan command
	done     chan struct{}
	count    atomic.Int64
}

// NewHub creates a hub and starts its delivery goroutine.
func NewHub() *Hub {
	h := &Hub{
		commands: make(chan command, commandBuffer),
		done:     make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	subscribers := make(map[Subscriber]struct{})

	for {
		select {
		case cmd := <-h.commands:
			switch cmd.kind {
			case cmdSubscribe:
				subscribers[cmd.subscriber] = struct{}{}
				h.count.Store(int64(len(subscribers)))
			case cmdUnsubscribe:
				delete(subscribers, cmd.subscriber)
				h.count.Store(int64(len(subscribers)))
			case cmdEmit:
				for sub := range subscribers {
					if err := sub.Send(cmd.envelope); err != nil {
						delete(subscribers, sub)
					}
				}
				h.count.Store(int64(len(subscribers)))
			}
		case <-h.done:
			return
		}
	}
}

// Subscribe registers a new viewer and greets it with a connection event.
func (h *Hub) Subscribe(sub Subscriber) {
	select {
	case h.commands <- command{kind: cmdSubscribe, subscriber: sub}:
	case <-h.done:
		return
	}
	h.Emit(EventConnection, map[string]interface{}{
		"message": "Connected to incident handler stream",
	})
}

// Unsubscribe removes a viewer from the active set.
func (h *Hub) Unsubscribe(sub Subscriber) {
	select {
	case h.commands <- command{kind: cmdUnsubscribe, subscriber: sub}:
	case <-h.done:
	}
}

// Emit schedules delivery of an event to every subscriber without waiting
// for it. Delivery is best-effort: nothing is queued for viewers that were
// not connected at emit time, and the event is dropped when the hub's
// buffer is full.
func (h *Hub) Emit(eventType string, data interface{}) {
	envelope := Envelope{
		Type:      eventType,
		Timestamp: time.Now().Format(time.RFC3339),
		Data:      data,
	}

	select {
	case h.commands <- command{kind: cmdEmit, envelope: envelope}:
	default:
		logger.Debugf("Broadcast buffer full, dropping %s event", eventType)
	}
}

// Count returns the number of currently-subscribed viewers.
func (h *Hub) Count() int {
	return int(h.count.Load())
}

// Stop shuts the delivery goroutine down. Pending commands are discarded.
func (h *Hub) Stop() {
	close(h.done)
}
