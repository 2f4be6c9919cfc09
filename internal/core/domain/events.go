package domain

// EventType defines the type of real-time event.
type EventType string

const (
	EventQueryCreated       EventType = "QUERY_CREATED"
	EventQueryAssigned      EventType = "QUERY_ASSIGNED"
	EventQueryStatusChanged EventType = "QUERY_STATUS_CHANGED"
	EventPong               EventType = "PONG"
)

// Event is the payload sent over WebSocket.
// Query is used for routing: only clients that can see it receive the event.
type Event struct {
	Type    EventType      `json:"type"`
	Payload *QuerySnapshot `json:"payload,omitempty"`
	Query   *Query         `json:"-"`
}

// NewQueryEvent builds an event carrying a snapshot of q.
func NewQueryEvent(eventType EventType, q *Query) Event {
	snapshot := NewQuerySnapshot(q)
	return Event{
		Type:    eventType,
		Payload: &snapshot,
		Query:   q.Clone(),
	}
}
