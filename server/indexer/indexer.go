// Package indexer builds the per-exhibit vector collections from raw
// reference documents on disk.
package indexer

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/docent/ai/chunker"
	"github.com/hrygo/docent/store"
)

// embedBatchSize bounds how many chunks go into one embedding request.
const embedBatchSize = 32

// Embedder is the slice of the embedding service the indexer needs.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer walks a two-level document tree, {dir}/{location}/{class}/*.txt,
// and builds one embedded collection per exhibit key.
type Indexer struct {
	store    *store.Store
	embedder Embedder
	chunker  *chunker.Chunker
	logger   *slog.Logger

	// sem bounds concurrent embedding calls across exhibit keys.
	sem *semaphore.Weighted
}

// New creates an indexer. concurrency bounds parallel per-key builds.
func New(st *store.Store, embedder Embedder, ck *chunker.Chunker, concurrency int64, logger *slog.Logger) *Indexer {
	if concurrency <= 0 {
		concurrency = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:    st,
		embedder: embedder,
		chunker:  ck,
		logger:   logger,
		sem:      semaphore.NewWeighted(concurrency),
	}
}

// BuildAll indexes every exhibit key found under docsDir. Keys that already
// have a collection are skipped unless rebuild is set. A key without
// documents is skipped with a warning; that is not fatal for the overall
// build. Per-key embedding failures are logged and skip the key, keeping
// the rest of the index usable.
func (ix *Indexer) BuildAll(ctx context.Context, docsDir string, rebuild bool) error {
	locations, err := os.ReadDir(docsDir)
	if err != nil {
		if os.IsNotExist(err) {
			ix.logger.Warn("document directory not found, index build skipped", "dir", docsDir)
			return nil
		}
		return errors.Wrapf(err, "failed to read document directory %s", docsDir)
	}

	var wg sync.WaitGroup
	for _, locationDir := range locations {
		if !locationDir.IsDir() {
			continue
		}
		location := locationDir.Name()

		classes, err := os.ReadDir(filepath.Join(docsDir, location))
		if err != nil {
			ix.logger.Error("failed to read location directory", "location", location, "error", err)
			continue
		}
		for _, classDir := range classes {
			if !classDir.IsDir() {
				continue
			}
			key := store.ExhibitKey{Location: location, ClassName: classDir.Name()}

			if err := ix.sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer ix.sem.Release(1)
				if err := ix.buildKey(ctx, docsDir, key, rebuild); err != nil {
					ix.logger.Error("failed to build collection", "key", key.String(), "error", err)
				}
			}()
		}
	}
	wg.Wait()
	return nil
}

// buildKey builds the collection for one exhibit key.
func (ix *Indexer) buildKey(ctx context.Context, docsDir string, key store.ExhibitKey, rebuild bool) error {
	count, err := ix.store.CountDocumentChunks(ctx, key)
	if err != nil {
		return err
	}
	if count > 0 && !rebuild {
		ix.logger.Debug("collection already built", "key", key.String(), "chunks", count)
		return nil
	}

	creates := ix.collectChunks(docsDir, key)
	if len(creates) == 0 {
		ix.logger.Warn("no documents for exhibit key, skipping", "key", key.String())
		return nil
	}

	if err := ix.embedChunks(ctx, creates); err != nil {
		return err
	}

	if count > 0 {
		if err := ix.store.DeleteDocumentChunks(ctx, key); err != nil {
			return err
		}
	}
	if err := ix.store.CreateDocumentChunks(ctx, creates); err != nil {
		return err
	}

	ix.logger.Info("collection built", "key", key.String(), "chunks", len(creates))
	return nil
}

// collectChunks reads and splits every .txt document under the key's
// directory.
func (ix *Indexer) collectChunks(docsDir string, key store.ExhibitKey) []*store.CreateDocumentChunk {
	classDir := filepath.Join(docsDir, key.Location, key.ClassName)
	files, err := os.ReadDir(classDir)
	if err != nil {
		ix.logger.Error("failed to read class directory", "key", key.String(), "error", err)
		return nil
	}

	creates := []*store.CreateDocumentChunk{}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(classDir, file.Name()))
		if err != nil {
			ix.logger.Error("failed to read document", "key", key.String(), "file", file.Name(), "error", err)
			continue
		}
		for _, content := range ix.chunker.Split(string(data)) {
			creates = append(creates, &store.CreateDocumentChunk{
				Location:  key.Location,
				ClassName: key.ClassName,
				Content:   content,
				Source:    file.Name(),
			})
		}
	}
	return creates
}

// embedChunks fills in the embedding of every chunk, in bounded batches.
func (ix *Indexer) embedChunks(ctx context.Context, creates []*store.CreateDocumentChunk) error {
	for start := 0; start < len(creates); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(creates) {
			end = len(creates)
		}
		batch := creates[start:end]

		texts := make([]string, len(batch))
		for i, create := range batch {
			texts[i] = create.Content
		}
		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return errors.Wrap(err, "failed to embed chunk batch")
		}
		if len(vectors) != len(batch) {
			return errors.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(batch))
		}
		for i, vector := range vectors {
			batch[i].Embedding = vector
		}
	}
	return nil
}
