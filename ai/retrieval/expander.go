package retrieval

import "strings"

// Query expansion turns one visitor question into a small set of search
// strings. Visitors ask colloquially ("누가 만들었어?") while reference text
// is written formally ("작가", "제작"), so a lexical bridge meaningfully
// improves recall before any vectors are involved.

// formalSubstitutions maps colloquial phrasings to formal reference-text
// vocabulary. At most one substitution is applied per query: the first
// matching entry wins and the rest are skipped, so substitutions are
// mutually exclusive rather than cumulative.
var formalSubstitutions = []struct {
	colloquial string
	formal     string
}{
	{"누가 만들었", "작가는 누구"},
	{"누가 그렸", "그린 화가는 누구"},
	{"누가 만든", "제작자는 누구"},
	{"언제 만들었", "제작 연도는 언제"},
	{"언제 그렸", "제작 시기는 언제"},
	{"얼마나 커", "크기는 어느 정도"},
	{"얼마나 오래", "얼마나 오래된 작품"},
	{"뭐야", "무엇인가"},
	{"who made", "who is the artist of"},
	{"who painted", "who is the painter of"},
	{"how big", "what are the dimensions of"},
	{"how old", "when was it created"},
}

// keywordBundles are topic-triggered keyword insertions. Each bundle is
// triggered independently by substring presence in the original query, so a
// single question can produce up to five bundle expansions.
var keywordBundles = []struct {
	topic    string
	triggers []string
	keywords string
}{
	{
		topic:    "creator",
		triggers: []string{"누가", "만든", "만들", "작가", "화가", "who", "made", "artist", "painted"},
		keywords: "작가 화가 제작자 creator artist",
	},
	{
		topic:    "temporal",
		triggers: []string{"언제", "연도", "시대", "몇 년", "when", "year", "century", "old"},
		keywords: "제작 연도 시대 역사 period year",
	},
	{
		topic:    "location",
		triggers: []string{"어디", "장소", "출토", "where", "from", "found"},
		keywords: "출토지 소장 전시 위치 origin location",
	},
	{
		topic:    "dimension",
		triggers: []string{"크기", "얼마나", "높이", "커", "size", "big", "tall", "dimension"},
		keywords: "크기 높이 너비 치수 size dimensions",
	},
	{
		topic:    "significance",
		triggers: []string{"왜", "유명", "중요", "의미", "why", "famous", "important", "special"},
		keywords: "의의 가치 유명한 이유 significance importance",
	},
}

// ExpandQuery derives the expanded query set for a visitor question. The
// original query is always included. Duplicate expansions are collapsed;
// the returned order is first-occurrence order but carries no meaning.
func ExpandQuery(query string) []string {
	expansions := make([]string, 0, 2+len(keywordBundles))
	seen := make(map[string]struct{}, 2+len(keywordBundles))
	add := func(q string) {
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		expansions = append(expansions, q)
	}

	add(query)

	lower := strings.ToLower(query)
	for _, sub := range formalSubstitutions {
		if strings.Contains(lower, sub.colloquial) {
			add(strings.Replace(lower, sub.colloquial, sub.formal, 1))
			break
		}
	}

	for _, bundle := range keywordBundles {
		for _, trigger := range bundle.triggers {
			if strings.Contains(lower, trigger) {
				add(query + " " + bundle.keywords)
				break
			}
		}
	}

	return expansions
}
