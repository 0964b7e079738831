package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/docent/ai/retrieval"
	"github.com/hrygo/docent/store"
)

var assembleKey = store.ExhibitKey{Location: "louvre", ClassName: "mona_lisa"}

func TestAssemble(t *testing.T) {
	t.Run("message shape", func(t *testing.T) {
		messages := Assemble("페르소나", assembleKey, nil, "", "누가 그렸어?")

		require.Len(t, messages, 2)
		assert.Equal(t, "system", messages[0].Role)
		assert.Equal(t, "user", messages[1].Role)
		assert.Equal(t, "누가 그렸어?", messages[1].Content)
	})

	t.Run("persona leads the system prompt", func(t *testing.T) {
		messages := Assemble("나는 유쾌한 도슨트입니다.", assembleKey, nil, "", "질문")
		assert.True(t, len(messages[0].Content) > 0)
		assert.Contains(t, messages[0].Content, "나는 유쾌한 도슨트입니다.")
		assert.Contains(t, messages[0].Content, "'louvre' 박물관에서 'mona_lisa' 작품")
	})

	t.Run("reference block is enumerated", func(t *testing.T) {
		results := []*retrieval.Result{
			{Content: "첫 번째 자료"},
			{Content: "두 번째 자료"},
		}
		messages := Assemble("p", assembleKey, results, "", "질문")

		system := messages[0].Content
		assert.Contains(t, system, "=== 참고 자료 ===")
		assert.Contains(t, system, "[문서 1]\n첫 번째 자료")
		assert.Contains(t, system, "[문서 2]\n두 번째 자료")
	})

	t.Run("reference block omitted when empty", func(t *testing.T) {
		messages := Assemble("p", assembleKey, nil, "", "질문")
		assert.NotContains(t, messages[0].Content, "=== 참고 자료 ===")
		assert.NotContains(t, messages[0].Content, "[문서")
	})

	t.Run("summary block only when present", func(t *testing.T) {
		withSummary := Assemble("p", assembleKey, nil, "이전에 작가를 물어봄", "질문")
		assert.Contains(t, withSummary[0].Content, "=== 이전 대화 요약 ===")
		assert.Contains(t, withSummary[0].Content, "이전에 작가를 물어봄")

		withoutSummary := Assemble("p", assembleKey, nil, "", "질문")
		assert.NotContains(t, withoutSummary[0].Content, "이전 대화 요약")
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		results := []*retrieval.Result{{Content: "자료"}}
		a := Assemble("p", assembleKey, results, "요약", "질문")
		b := Assemble("p", assembleKey, results, "요약", "질문")
		assert.Equal(t, a, b)
	})
}

func TestCleanAnswer(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "emphasis markers stripped",
			input:    "이 작품은 **레오나르도 다빈치**의 _걸작_입니다.",
			expected: "이 작품은 레오나르도 다빈치의 걸작입니다.",
		},
		{
			name:     "heading markers stripped",
			input:    "## 모나리자\n설명입니다.",
			expected: "모나리자\n설명입니다.",
		},
		{
			name:     "bullet markers stripped",
			input:    "- 첫째\n- 둘째\n• 셋째",
			expected: "첫째\n둘째\n셋째",
		},
		{
			name:     "literal escaped newlines become real ones",
			input:    `첫 줄\n둘째 줄`,
			expected: "첫 줄\n둘째 줄",
		},
		{
			name:     "blank-line runs collapse to a space",
			input:    "문단 하나\n\n\n문단 둘",
			expected: "문단 하나 문단 둘",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  답변  \n",
			expected: "답변",
		},
		{
			name:     "plain text untouched",
			input:    "마크업 없는 평범한 답변입니다.",
			expected: "마크업 없는 평범한 답변입니다.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanAnswer(tc.input))
		})
	}
}
