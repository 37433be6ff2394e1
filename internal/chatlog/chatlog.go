// Package chatlog maintains the append-only, index-ordered message log
// for a room.
package chatlog

import (
	"context"
	"fmt"
	"time"

	"github.com/sockchat/sockchat/internal/domain"
	"github.com/sockchat/sockchat/internal/store"
)

// Log appends and reads room messages.
type Log struct {
	store store.Store
}

// New creates a message log backed by the given store.
func New(s store.Store) *Log {
	return &Log{store: s}
}

// AppendNext writes a new message with the next index for the room,
// stamped with the current wall-clock time in epoch seconds.
//
// Index assignment reads the current maximum and increments it, with
// no mutual exclusion. Two users posting at the same time can both
// read the same maximum and store the same index; accounting for that
// is outside the scope of this project.
func (l *Log) AppendNext(ctx context.Context, room, username, content string) (domain.Message, error) {
	latest, err := l.store.LatestMessage(ctx, room)
	if err != nil {
		return domain.Message{}, fmt.Errorf("read latest message: %w", err)
	}

	var index int64
	if latest != nil {
		index = latest.Index + 1
	}

	msg := domain.Message{
		Room:      room,
		Index:     index,
		Timestamp: time.Now().Unix(),
		Username:  username,
		Content:   content,
	}
	if err := l.store.PutMessage(ctx, &msg); err != nil {
		return domain.Message{}, fmt.Errorf("write message: %w", err)
	}
	return msg, nil
}

// Recent returns up to n messages for the room, descending by index
// (newest first), exactly as stored. Callers that need chronological
// order must reverse the result themselves.
func (l *Log) Recent(ctx context.Context, room string, n int) ([]domain.Message, error) {
	msgs, err := l.store.RecentMessages(ctx, room, n)
	if err != nil {
		return nil, fmt.Errorf("read recent messages: %w", err)
	}
	return msgs, nil
}
