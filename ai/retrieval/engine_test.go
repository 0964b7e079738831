package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/docent/store"
)

type fakeEmbedder struct {
	queries []string
	fail    bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, assert.AnError
	}
	f.queries = append(f.queries, text)
	return []float32{1, 0, 0}, nil
}

type fakeSearcher struct {
	candidates []*store.ChunkCandidate
	calls      int
	fail       bool
}

func (f *fakeSearcher) SearchChunkCandidates(_ context.Context, _ *store.ChunkSearchOptions) ([]*store.ChunkCandidate, error) {
	f.calls++
	if f.fail {
		return nil, assert.AnError
	}
	return f.candidates, nil
}

func candidate(content string, score float32, embedding []float32) *store.ChunkCandidate {
	return &store.ChunkCandidate{
		Chunk: &store.DocumentChunk{
			Location:  "louvre",
			ClassName: "mona_lisa",
			Content:   content,
			Source:    "doc.txt",
		},
		Embedding: embedding,
		Score:     score,
	}
}

var testKey = store.ExhibitKey{Location: "louvre", ClassName: "mona_lisa"}

func TestEngine_Retrieve(t *testing.T) {
	t.Run("original query is always searched", func(t *testing.T) {
		embedder := &fakeEmbedder{}
		searcher := &fakeSearcher{}
		engine := NewEngine(searcher, embedder, Options{})

		engine.Retrieve(context.Background(), testKey, "이 작품은 누가 만들었어?")

		require.NotEmpty(t, embedder.queries)
		assert.Equal(t, "이 작품은 누가 만들었어?", embedder.queries[0])
	})

	t.Run("results bounded by top-k", func(t *testing.T) {
		searcher := &fakeSearcher{candidates: []*store.ChunkCandidate{
			candidate("alpha", 0.9, []float32{1, 0, 0}),
			candidate("bravo", 0.8, []float32{0, 1, 0}),
			candidate("charlie", 0.7, []float32{0, 0, 1}),
			candidate("delta", 0.6, []float32{1, 1, 0}),
		}}
		engine := NewEngine(searcher, &fakeEmbedder{}, Options{TopK: 2})

		results := engine.Retrieve(context.Background(), testKey, "크기는 얼마나 커?")
		assert.LessOrEqual(t, len(results), 2)
	})

	t.Run("duplicate prefixes collapse across queries", func(t *testing.T) {
		shared := strings.Repeat("가", 120)
		searcher := &fakeSearcher{candidates: []*store.ChunkCandidate{
			candidate(shared+" first tail", 0.9, []float32{1, 0, 0}),
			candidate(shared+" second tail", 0.8, []float32{0, 1, 0}),
		}}
		engine := NewEngine(searcher, &fakeEmbedder{}, Options{TopK: 3, FingerprintLength: 100})

		results := engine.Retrieve(context.Background(), testKey, "질문")
		require.Len(t, results, 1)
		assert.True(t, strings.HasSuffix(results[0].Content, "first tail"))
	})

	t.Run("short distinct chunks are not collapsed", func(t *testing.T) {
		searcher := &fakeSearcher{candidates: []*store.ChunkCandidate{
			candidate("짧은 자료 하나", 0.9, []float32{1, 0, 0}),
			candidate("짧은 자료 둘", 0.8, []float32{0, 1, 0}),
		}}
		engine := NewEngine(searcher, &fakeEmbedder{}, Options{TopK: 3})

		results := engine.Retrieve(context.Background(), testKey, "질문")
		assert.Len(t, results, 2)
	})

	t.Run("invalid key yields empty results", func(t *testing.T) {
		searcher := &fakeSearcher{}
		engine := NewEngine(searcher, &fakeEmbedder{}, Options{})

		results := engine.Retrieve(context.Background(), store.ExhibitKey{}, "질문")
		assert.Empty(t, results)
		assert.Zero(t, searcher.calls)
	})

	t.Run("empty collection yields empty results, not error", func(t *testing.T) {
		engine := NewEngine(&fakeSearcher{}, &fakeEmbedder{}, Options{})
		results := engine.Retrieve(context.Background(), testKey, "질문")
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("embedding failure degrades to empty results", func(t *testing.T) {
		engine := NewEngine(&fakeSearcher{}, &fakeEmbedder{fail: true}, Options{})
		results := engine.Retrieve(context.Background(), testKey, "질문")
		assert.Empty(t, results)
	})

	t.Run("search failure degrades to empty results", func(t *testing.T) {
		engine := NewEngine(&fakeSearcher{fail: true}, &fakeEmbedder{}, Options{})
		results := engine.Retrieve(context.Background(), testKey, "질문")
		assert.Empty(t, results)
	})

	t.Run("results carry chunk provenance", func(t *testing.T) {
		searcher := &fakeSearcher{candidates: []*store.ChunkCandidate{
			candidate("자료", 0.9, []float32{1, 0, 0}),
		}}
		engine := NewEngine(searcher, &fakeEmbedder{}, Options{})

		results := engine.Retrieve(context.Background(), testKey, "질문")
		require.Len(t, results, 1)
		assert.Equal(t, "louvre", results[0].Museum)
		assert.Equal(t, "mona_lisa", results[0].Class)
		assert.Equal(t, "doc.txt", results[0].Source)
	})
}

func TestSelectDiverse(t *testing.T) {
	t.Run("most relevant candidate is always first", func(t *testing.T) {
		candidates := []*store.ChunkCandidate{
			candidate("best", 0.95, []float32{1, 0, 0}),
			candidate("good", 0.90, []float32{0.99, 0.01, 0}),
			candidate("other", 0.50, []float32{0, 1, 0}),
		}
		selected := selectDiverse(candidates, 2, 0.6)
		require.NotEmpty(t, selected)
		assert.Equal(t, "best", selected[0].Chunk.Content)
	})

	t.Run("redundant candidate loses to a diverse one", func(t *testing.T) {
		candidates := []*store.ChunkCandidate{
			candidate("best", 0.95, []float32{1, 0, 0}),
			// Near-duplicate of the first, slightly better raw score than
			// the diverse alternative.
			candidate("near duplicate", 0.90, []float32{1, 0, 0}),
			candidate("diverse", 0.85, []float32{0, 1, 0}),
		}
		selected := selectDiverse(candidates, 2, 0.6)
		require.Len(t, selected, 2)
		assert.Equal(t, "diverse", selected[1].Chunk.Content)
	})

	t.Run("k larger than candidate set returns everything", func(t *testing.T) {
		candidates := []*store.ChunkCandidate{
			candidate("one", 0.9, []float32{1, 0, 0}),
			candidate("two", 0.8, []float32{0, 1, 0}),
		}
		assert.Len(t, selectDiverse(candidates, 10, 0.6), 2)
	})

	t.Run("single candidate passes through", func(t *testing.T) {
		candidates := []*store.ChunkCandidate{
			candidate("only", 0.9, []float32{1, 0, 0}),
		}
		assert.Len(t, selectDiverse(candidates, 3, 0.6), 1)
	})
}

func TestFingerprint(t *testing.T) {
	assert.Equal(t, "short", fingerprint("short", 100))

	long := strings.Repeat("나", 150)
	fp := fingerprint(long, 100)
	assert.Equal(t, 100, len([]rune(fp)))
	assert.Equal(t, fp, fingerprint(long+" trailing difference", 100))
}
