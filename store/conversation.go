package store

import "time"

// ConversationTurn is one question/answer exchange in a room. Turns are
// append-only; ordering is insertion order, which is chronological order.
type ConversationTurn struct {
	ID        int64     `json:"id"`
	RoomID    string    `json:"room_id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"` // persisted as an ISO-8601 string
}

// CreateConversationTurn is the create condition for a conversation turn.
type CreateConversationTurn struct {
	RoomID   string
	Question string
	Answer   string
}

// FindConversationTurns is the find condition for conversation turns.
// LastN limits the result to the most recent N turns; the returned slice is
// always in chronological order regardless of LastN.
type FindConversationTurns struct {
	RoomID string
	LastN  int // 0 means all turns
}
