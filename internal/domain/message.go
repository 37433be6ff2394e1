package domain

// DefaultRoom is the single chat room every message and connection
// belongs to. Multi-room support is out of scope.
const DefaultRoom = "general"

// Message is one chat message in a room's append-only log.
//
// Messages are keyed by (Room, Index). Indices are assigned by the
// message log as previous-max plus one; they are non-decreasing in
// insertion order but not guaranteed unique under concurrent senders.
type Message struct {
	Room      string `json:"room"`
	Index     int64  `json:"index"`
	Timestamp int64  `json:"timestamp"`
	Username  string `json:"username"`
	Content   string `json:"content"`
}

// MessageBatch is the wire envelope for every message payload pushed to
// clients, both live broadcasts and history replays.
type MessageBatch struct {
	Messages []Message `json:"messages"`
}
