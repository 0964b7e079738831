// Package prompt assembles the generation request from persona, retrieved
// reference chunks, conversation summary, and the live question, and
// normalizes model output for display.
package prompt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hrygo/docent/ai/llm"
	"github.com/hrygo/docent/ai/retrieval"
	"github.com/hrygo/docent/store"
)

// Assemble builds the ordered message list for the generation provider.
// It is deterministic and side-effect free: persona text is embedded
// verbatim, retrieved chunks become an enumerated reference block (omitted
// entirely when empty), the prior summary is embedded only when present,
// and the literal question goes into its own user turn.
func Assemble(persona string, key store.ExhibitKey, results []*retrieval.Result, summary string, question string) []llm.Message {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "당신은 '%s' 박물관에서 '%s' 작품에 대해 설명하고 있습니다.\n", key.Location, key.ClassName)
	b.WriteString("아래 제공된 참고 자료를 바탕으로 정확하고 친절하게 답변해주세요.\n")
	b.WriteString("참고 자료에 없는 내용은 추측하지 말고, 모른다고 솔직히 답변하세요.\n")
	b.WriteString("작품, 문화재, 유적에 관련 없는 질문 시 해당 내용에 대해 잘 모르겠다고 하고 관심을 가질만한 신기한 사실이나 정보로 유도해주세요.\n")

	if len(results) > 0 {
		b.WriteString("\n\n=== 참고 자료 ===\n")
		for i, result := range results {
			fmt.Fprintf(&b, "[문서 %d]\n%s\n\n", i+1, result.Content)
		}
		b.WriteString("==================\n")
	}

	if summary != "" {
		fmt.Fprintf(&b, "\n\n=== 이전 대화 요약 ===\n%s\n==================\n", summary)
	}

	return []llm.Message{
		llm.SystemPrompt(b.String()),
		llm.UserMessage(question),
	}
}

var (
	emphasisRe   = regexp.MustCompile(`\*\*|__|\*|_`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	bulletRe     = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)
	blankRunRe   = regexp.MustCompile(`\n[ \t]*\n+`)
	trailingWSRe = regexp.MustCompile(`[ \t]+\n`)
)

// CleanAnswer normalizes free-form model output for space-constrained
// display clients: markup emphasis, heading and list-bullet markers are
// stripped, literal escaped-newline sequences become real line breaks, and
// blank-line runs collapse to a single space.
func CleanAnswer(answer string) string {
	cleaned := strings.ReplaceAll(answer, `\n`, "\n")
	cleaned = headingRe.ReplaceAllString(cleaned, "")
	cleaned = bulletRe.ReplaceAllString(cleaned, "")
	cleaned = emphasisRe.ReplaceAllString(cleaned, "")
	cleaned = trailingWSRe.ReplaceAllString(cleaned, "\n")
	cleaned = blankRunRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
