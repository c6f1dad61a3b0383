package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/SAP-F-2025/attendance-service/internal/events"
	"github.com/SAP-F-2025/attendance-service/internal/models"
)

// Hub fans domain events out to connected live-feed clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *events.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *events.Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Live feed client registered", "user_id", client.sub.UserID, "class_id", client.sub.ClassID)
		case client := <-h.unregister:
			h.remove(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// HandleEvent queues an event for broadcast; it satisfies events.Handler
func (h *Hub) HandleEvent(ctx context.Context, event *events.Event) error {
	select {
	case h.broadcast <- event:
		return nil
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Attach registers a connection and starts its pumps
func (h *Hub) Attach(conn *websocket.Conn, sub Subscription) {
	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		sub:    sub,
		logger: h.logger,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(event *events.Event) {
	var audience events.Audience
	if err := event.Decode(&audience); err != nil {
		h.logger.Warn("Live feed skipped event", "event_type", event.Type, "error", err)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal live feed event", "event_type", event.Type, "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.clients {
		if !Receives(client.sub, audience) {
			continue
		}
		payload := data
		if client.sub.Role == models.RoleStudent && event.Type == events.EventAttendanceMarked {
			payload, err = RedactForStudent(event, client.sub.UserID)
			if err != nil {
				h.logger.Warn("Live feed skipped student delivery", "event_type", event.Type, "user_id", client.sub.UserID, "error", err)
				continue
			}
		}
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.remove(client)
	}
}

// Receives reports whether a subscription should see an event for audience
func Receives(sub Subscription, audience events.Audience) bool {
	if audience.StudentID != "" && sub.Role == models.RoleStudent && sub.UserID != audience.StudentID {
		return false
	}
	if audience.ClassID == "" {
		return sub.Role.IsStaff()
	}
	if sub.ClassID != "" && sub.ClassID != audience.ClassID {
		return false
	}
	if sub.VisibleClasses != nil && !sub.VisibleClasses[audience.ClassID] {
		return false
	}
	return true
}

// RedactForStudent encodes an attendance.marked event keeping only the
// student's own roster entry
func RedactForStudent(event *events.Event, studentID string) ([]byte, error) {
	var payload map[string]json.RawMessage
	if err := event.Decode(&payload); err != nil {
		return nil, err
	}

	if raw, ok := payload["record"]; ok && string(raw) != "null" {
		var record models.AttendanceRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("failed to decode attendance record: %w", err)
		}
		own := make([]models.AttendanceEntry, 0, 1)
		if entry, found := record.EntryFor(studentID); found {
			own = append(own, entry)
		}
		record.Attendees = own

		redacted, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to encode attendance record: %w", err)
		}
		payload["record"] = redacted
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event.Type, err)
	}
	redactedEvent := *event
	redactedEvent.Data = data
	return json.Marshal(&redactedEvent)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.Info("Live feed client unregistered", "user_id", client.sub.UserID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}
