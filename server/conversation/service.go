// Package conversation maintains the per-room turn log and its derived
// summary, with a write-through memory cache in front of durable storage.
package conversation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/docent/store"
	"github.com/hrygo/docent/store/cache"
)

const (
	summaryCacheCapacity = 1024
	summaryCacheTTL      = 24 * time.Hour
)

// Service is the conversation store facade. Summaries are eventually
// consistent: a summary reflects turns as of the last completed
// RefreshSummary call and may lag the latest saved turn by one deferred
// update cycle.
type Service struct {
	store      *store.Store
	summarizer *Summarizer
	window     int

	cache *cache.LRUCache[string, string]

	// Per-room locks serialize append/refresh/delete so overlapping
	// requests for the same room cannot interleave.
	roomMu sync.Map // map[string]*sync.Mutex
}

// NewService creates a conversation service. window is the number of recent
// turns a summary is derived from.
func NewService(st *store.Store, summarizer *Summarizer, window int) *Service {
	if window <= 0 {
		window = 5
	}
	return &Service{
		store:      st,
		summarizer: summarizer,
		window:     window,
		cache:      cache.NewLRUCache[string, string](summaryCacheCapacity, summaryCacheTTL),
	}
}

func (s *Service) lockRoom(roomID string) func() {
	muAny, _ := s.roomMu.LoadOrStore(roomID, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// GetSummary returns the stored summary for a room. The memory cache is
// checked first; on miss the durable summary is read through into the
// cache. A room without a summary yields ("", false), which is not an
// error: it distinguishes a new room from a failed summarization.
func (s *Service) GetSummary(ctx context.Context, roomID string) (string, bool) {
	if summary, ok := s.cache.Get(roomID); ok {
		return summary, true
	}

	summary, found, err := s.store.GetConversationSummary(ctx, roomID)
	if err != nil {
		slog.Error("failed to load conversation summary", "room_id", roomID, "error", err)
		return "", false
	}
	if !found {
		return "", false
	}

	s.cache.Set(roomID, summary)
	return summary, true
}

// AppendTurn persists one question/answer exchange with the current
// timestamp. Appends for the same room are serialized so overlapping
// requests land in arrival order.
func (s *Service) AppendTurn(ctx context.Context, roomID, question, answer string) error {
	unlock := s.lockRoom(roomID)
	defer unlock()

	_, err := s.store.CreateConversationTurn(ctx, &store.CreateConversationTurn{
		RoomID:   roomID,
		Question: question,
		Answer:   answer,
	})
	return err
}

// RefreshSummary re-derives the room summary from the most recent turns and
// writes it through to durable storage and the cache. No-op for a room
// without turns.
func (s *Service) RefreshSummary(ctx context.Context, roomID string) error {
	unlock := s.lockRoom(roomID)
	defer unlock()

	turns, err := s.store.ListConversationTurns(ctx, &store.FindConversationTurns{
		RoomID: roomID,
		LastN:  s.window,
	})
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		return nil
	}

	summary := s.summarizer.Summarize(ctx, turns)
	if err := s.store.UpsertConversationSummary(ctx, roomID, summary); err != nil {
		return err
	}
	s.cache.Set(roomID, summary)

	slog.Debug("conversation summary refreshed", "room_id", roomID, "turns", len(turns))
	return nil
}

// ListTurns returns the full turn log for a room in chronological order.
func (s *Service) ListTurns(ctx context.Context, roomID string) ([]*store.ConversationTurn, error) {
	return s.store.ListConversationTurns(ctx, &store.FindConversationTurns{RoomID: roomID})
}

// Delete removes the room's turn log, summary, and cache entry. Destructive
// and immediate.
func (s *Service) Delete(ctx context.Context, roomID string) error {
	unlock := s.lockRoom(roomID)
	defer unlock()

	if err := s.store.DeleteConversation(ctx, roomID); err != nil {
		return err
	}
	s.cache.Delete(roomID)
	slog.Info("conversation deleted", "room_id", roomID)
	return nil
}
