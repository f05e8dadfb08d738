package server

import (
	"context"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
)

const (
	RealtimeEventNoteCreated = "note-created"
	realtimeEventHeartbeat   = "heartbeat"
	realtimeSourceBackend    = "quicknote-api"
	// RealtimeTopicNotes carries events about the shared notes collection.
	RealtimeTopicNotes = "notes"
)

// RealtimeMessage announces a change to subscribers of a topic.
type RealtimeMessage struct {
	Topic     string
	EventType string
	NoteIDs   []string
	Slug      string
	Timestamp time.Time
}

// RealtimeDispatcher fans messages out to live subscribers. Slow subscribers drop messages.
type RealtimeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*realtimeSubscriber
	nextID      int64
	bufferSize  int
}

type realtimeSubscriber struct {
	id     int64
	stream chan RealtimeMessage
}

func NewRealtimeDispatcher() *RealtimeDispatcher {
	return &RealtimeDispatcher{
		subscribers: make(map[string]map[int64]*realtimeSubscriber),
		bufferSize:  16,
	}
}

// Subscribe registers a subscriber for topic until ctx ends or cleanup runs.
func (d *RealtimeDispatcher) Subscribe(ctx context.Context, topic string) (<-chan RealtimeMessage, func()) {
	if topic == "" {
		ch := make(chan RealtimeMessage)
		close(ch)
		return ch, func() {}
	}
	subscriber := &realtimeSubscriber{
		id:     d.nextSequence(),
		stream: make(chan RealtimeMessage, d.bufferSize),
	}
	d.registerSubscriber(topic, subscriber)

	var once sync.Once
	done := make(chan struct{})
	cleanup := func() {
		once.Do(func() {
			d.unregisterSubscriber(topic, subscriber.id)
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-done:
		}
	}()
	return subscriber.stream, cleanup
}

// Publish delivers message to every current subscriber of its topic without blocking.
func (d *RealtimeDispatcher) Publish(message RealtimeMessage) {
	if message.Topic == "" || message.EventType == "" {
		return
	}
	d.mu.RLock()
	subscribers := d.subscribers[message.Topic]
	if len(subscribers) == 0 {
		d.mu.RUnlock()
		return
	}
	copies := make([]*realtimeSubscriber, 0, len(subscribers))
	for _, subscriber := range subscribers {
		copies = append(copies, subscriber)
	}
	d.mu.RUnlock()
	for _, subscriber := range copies {
		select {
		case subscriber.stream <- message:
		default:
		}
	}
}

// AnnounceNoteCreated publishes a note-created event for note on the notes topic.
func (d *RealtimeDispatcher) AnnounceNoteCreated(note notes.Note) {
	d.Publish(RealtimeMessage{
		Topic:     RealtimeTopicNotes,
		EventType: RealtimeEventNoteCreated,
		NoteIDs:   []string{note.ID.String()},
		Slug:      note.Slug,
		Timestamp: note.Time,
	})
}

// SubscriberCount reports the live subscribers of topic.
func (d *RealtimeDispatcher) SubscriberCount(topic string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers[topic])
}

func (d *RealtimeDispatcher) nextSequence() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	return d.nextID
}

func (d *RealtimeDispatcher) registerSubscriber(topic string, subscriber *realtimeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subscribers[topic]; !ok {
		d.subscribers[topic] = make(map[int64]*realtimeSubscriber)
	}
	d.subscribers[topic][subscriber.id] = subscriber
}

func (d *RealtimeDispatcher) unregisterSubscriber(topic string, subscriberID int64) {
	d.mu.Lock()
	subscribers := d.subscribers[topic]
	if subscribers != nil {
		delete(subscribers, subscriberID)
		if len(subscribers) == 0 {
			delete(d.subscribers, topic)
		}
	}
	d.mu.Unlock()
}
