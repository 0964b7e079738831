package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/docent/ai/chunker"
	"github.com/hrygo/docent/internal/profile"
	"github.com/hrygo/docent/store"
	"github.com/hrygo/docent/store/db/sqlite"
)

type countingEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *countingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

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

func writeDoc(t *testing.T, dir string, parts ...string) {
	t.Helper()
	path := filepath.Join(append([]string{dir}, parts[:len(parts)-1]...)...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(parts[len(parts)-1]), 0o644))
}

func TestIndexer_BuildAll(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	docs := t.TempDir()

	writeDoc(t, docs, "louvre", "mona_lisa", "history.txt", "모나리자는 레오나르도 다빈치가 그린 초상화이다.")
	writeDoc(t, docs, "louvre", "venus_de_milo", "origin.txt", "밀로의 비너스는 고대 그리스 조각상이다.")
	writeDoc(t, docs, "orsay", "starry_night", "notes.txt", "별이 빛나는 밤은 고흐의 작품이다.")
	// Non-document files are ignored.
	writeDoc(t, docs, "louvre", "mona_lisa", "metadata.json", "{}")

	ix := New(st, &countingEmbedder{}, chunker.New(), 2, nil)
	require.NoError(t, ix.BuildAll(ctx, docs, false))

	keys, err := st.ListExhibitKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	count, err := st.CountDocumentChunks(ctx, store.ExhibitKey{Location: "louvre", ClassName: "mona_lisa"})
	require.NoError(t, err)
	assert.Equal(t, 1, count, "one short doc becomes one chunk; the json file is skipped")
}

func TestIndexer_SkipsBuiltCollections(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	docs := t.TempDir()
	writeDoc(t, docs, "louvre", "mona_lisa", "doc.txt", "자료")

	embedder := &countingEmbedder{}
	ix := New(st, embedder, chunker.New(), 1, nil)

	require.NoError(t, ix.BuildAll(ctx, docs, false))
	require.NoError(t, ix.BuildAll(ctx, docs, false))
	assert.Equal(t, 1, embedder.calls, "second build must skip the existing collection")

	t.Run("rebuild replaces instead of appending", func(t *testing.T) {
		require.NoError(t, ix.BuildAll(ctx, docs, true))
		count, err := st.CountDocumentChunks(ctx, store.ExhibitKey{Location: "louvre", ClassName: "mona_lisa"})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestIndexer_EmptyInputs(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	ix := New(st, &countingEmbedder{}, chunker.New(), 1, nil)

	t.Run("missing documents directory is not fatal", func(t *testing.T) {
		require.NoError(t, ix.BuildAll(ctx, filepath.Join(t.TempDir(), "missing"), false))
	})

	t.Run("class directory without documents is skipped", func(t *testing.T) {
		docs := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(docs, "louvre", "empty_exhibit"), 0o755))

		require.NoError(t, ix.BuildAll(ctx, docs, false))
		keys, err := st.ListExhibitKeys(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("whitespace-only document produces no chunks", func(t *testing.T) {
		docs := t.TempDir()
		writeDoc(t, docs, "louvre", "blank", "doc.txt", "   \n\t ")

		require.NoError(t, ix.BuildAll(ctx, docs, false))
		count, err := st.CountDocumentChunks(ctx, store.ExhibitKey{Location: "louvre", ClassName: "blank"})
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestIndexer_ChunksLongDocuments(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	docs := t.TempDir()
	writeDoc(t, docs, "louvre", "mona_lisa", "long.txt", strings.Repeat("가", 1200))

	ix := New(st, &countingEmbedder{}, chunker.New(chunker.WithChunkSize(500), chunker.WithOverlap(100)), 1, nil)
	require.NoError(t, ix.BuildAll(ctx, docs, false))

	count, err := st.CountDocumentChunks(ctx, store.ExhibitKey{Location: "louvre", ClassName: "mona_lisa"})
	require.NoError(t, err)
	assert.Greater(t, count, 1)
}
