package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/docent/ai/llm"
	"github.com/hrygo/docent/store"
)

// answerExcerptLen bounds how much of each answer the deterministic summary
// keeps, in runes.
const answerExcerptLen = 100

const summarizeSystemPrompt = `다음 박물관 관람객과 도슨트의 대화를 간결하게 요약해주세요.
관람객이 어떤 작품에 대해 무엇을 궁금해했는지와 핵심 답변 내용을 남기세요.`

// Summarizer derives a compact summary from the recent turns of a room.
// When a small summarization model is configured it is used with the same
// N-turn input contract; the deterministic labeled Q/A formatting is both
// the fallback and the default.
type Summarizer struct {
	llm     llm.Service
	timeout time.Duration
}

// NewSummarizer creates a summarizer. svc may be nil, which selects the
// deterministic formatting path unconditionally.
func NewSummarizer(svc llm.Service) *Summarizer {
	return &Summarizer{
		llm:     svc,
		timeout: 30 * time.Second,
	}
}

// Summarize derives the summary string for the given turns. It always
// returns a usable summary; model failures degrade to the deterministic
// form.
func (s *Summarizer) Summarize(ctx context.Context, turns []*store.ConversationTurn) string {
	if s.llm == nil {
		return formatTurns(turns)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := make([]llm.Message, 0, len(turns)*2+1)
	messages = append(messages, llm.SystemPrompt(summarizeSystemPrompt))
	for _, turn := range turns {
		messages = append(messages, llm.UserMessage(turn.Question))
		messages = append(messages, llm.AssistantMessage(turn.Answer))
	}

	completion, err := s.llm.Chat(ctx, messages)
	if err != nil || completion.FinishReason == llm.FinishEmpty {
		slog.Warn("summary model call failed, using deterministic summary", "error", err)
		return formatTurns(turns)
	}
	return strings.TrimSpace(completion.Content)
}

// formatTurns renders each turn as a labeled question/truncated-answer
// pair. Deterministic for a given turn sequence.
func formatTurns(turns []*store.ConversationTurn) string {
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		lines = append(lines, fmt.Sprintf("Q: %s\nA: %s", turn.Question, truncateRunes(turn.Answer, answerExcerptLen)))
	}
	return strings.Join(lines, "\n\n")
}

// truncateRunes truncates a string to a maximum rune count. Rune-level so
// multi-byte characters never split.
func truncateRunes(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
