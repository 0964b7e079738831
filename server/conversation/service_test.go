package conversation

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/docent/internal/profile"
	"github.com/hrygo/docent/store"
	"github.com/hrygo/docent/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:   "demo",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "docent_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })

	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestService(t *testing.T) *Service {
	return NewService(newTestStore(t), NewSummarizer(nil), 5)
}

func TestService_SummaryLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t.Run("new room has no summary", func(t *testing.T) {
		summary, ok := svc.GetSummary(ctx, "room-1")
		assert.False(t, ok)
		assert.Empty(t, summary)
	})

	t.Run("summary lags until refresh", func(t *testing.T) {
		require.NoError(t, svc.AppendTurn(ctx, "room-1", "누가 그렸어?", "다빈치입니다."))

		_, ok := svc.GetSummary(ctx, "room-1")
		assert.False(t, ok, "summary must not appear before a refresh cycle")

		require.NoError(t, svc.RefreshSummary(ctx, "room-1"))
		summary, ok := svc.GetSummary(ctx, "room-1")
		require.True(t, ok)
		assert.Contains(t, summary, "누가 그렸어?")
		assert.Contains(t, summary, "다빈치입니다.")
	})

	t.Run("refresh covers only the recent window", func(t *testing.T) {
		svc := NewService(newTestStore(t), NewSummarizer(nil), 2)

		for _, q := range []string{"질문 하나", "질문 둘", "질문 셋"} {
			require.NoError(t, svc.AppendTurn(ctx, "room-w", q, "답"))
		}
		require.NoError(t, svc.RefreshSummary(ctx, "room-w"))

		summary, ok := svc.GetSummary(ctx, "room-w")
		require.True(t, ok)
		assert.NotContains(t, summary, "질문 하나")
		assert.Contains(t, summary, "질문 둘")
		assert.Contains(t, summary, "질문 셋")
	})

	t.Run("refresh of an empty room is a no-op", func(t *testing.T) {
		require.NoError(t, svc.RefreshSummary(ctx, "empty-room"))
		_, ok := svc.GetSummary(ctx, "empty-room")
		assert.False(t, ok)
	})
}

func TestService_GetSummaryReadThrough(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := NewService(st, NewSummarizer(nil), 5)

	// Summary written behind the service's back: first read must come from
	// durable storage, then land in the cache.
	require.NoError(t, st.UpsertConversationSummary(ctx, "room-ext", "외부에서 쓴 요약"))

	summary, ok := svc.GetSummary(ctx, "room-ext")
	require.True(t, ok)
	assert.Equal(t, "외부에서 쓴 요약", summary)

	cached, ok := svc.cache.Get("room-ext")
	require.True(t, ok)
	assert.Equal(t, "외부에서 쓴 요약", cached)
}

func TestService_TurnLog(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.AppendTurn(ctx, "room-log", "첫 질문", "첫 답변"))
	require.NoError(t, svc.AppendTurn(ctx, "room-log", "둘째 질문", "둘째 답변"))

	turns, err := svc.ListTurns(ctx, "room-log")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "첫 질문", turns[0].Question)
	assert.Equal(t, "둘째 질문", turns[1].Question)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.AppendTurn(ctx, "room-del", "질문", "답변"))
	require.NoError(t, svc.RefreshSummary(ctx, "room-del"))
	_, ok := svc.GetSummary(ctx, "room-del")
	require.True(t, ok)

	require.NoError(t, svc.Delete(ctx, "room-del"))

	_, ok = svc.GetSummary(ctx, "room-del")
	assert.False(t, ok)
	turns, err := svc.ListTurns(ctx, "room-del")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestSummarizer_Deterministic(t *testing.T) {
	s := NewSummarizer(nil)

	t.Run("labeled question and answer", func(t *testing.T) {
		summary := s.Summarize(context.Background(), []*store.ConversationTurn{
			{Question: "누가 그렸어?", Answer: "다빈치입니다."},
		})
		assert.Equal(t, "Q: 누가 그렸어?\nA: 다빈치입니다.", summary)
	})

	t.Run("long answers are truncated", func(t *testing.T) {
		long := strings.Repeat("답", 150)
		summary := s.Summarize(context.Background(), []*store.ConversationTurn{
			{Question: "질문", Answer: long},
		})
		assert.Contains(t, summary, strings.Repeat("답", 100)+"...")
		assert.NotContains(t, summary, strings.Repeat("답", 101))
	})

	t.Run("turns joined by blank lines", func(t *testing.T) {
		summary := s.Summarize(context.Background(), []*store.ConversationTurn{
			{Question: "하나", Answer: "일"},
			{Question: "둘", Answer: "이"},
		})
		assert.Equal(t, "Q: 하나\nA: 일\n\nQ: 둘\nA: 이", summary)
	})

	t.Run("same turns produce the same summary", func(t *testing.T) {
		turns := []*store.ConversationTurn{
			{Question: "질문", Answer: "답변"},
		}
		a := s.Summarize(context.Background(), turns)
		b := s.Summarize(context.Background(), turns)
		assert.Equal(t, a, b)
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "", truncateRunes("", 10))
	assert.Equal(t, "short", truncateRunes("short", 10))
	assert.Equal(t, "가나다...", truncateRunes("가나다라마", 3))
	assert.Equal(t, "", truncateRunes("anything", 0))
}
