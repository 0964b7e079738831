package sqlite

import (
	"context"
	"encoding/binary"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/docent/store"
)

// ============================================================================
// SQLITE VECTOR SUPPORT
// ============================================================================
// Vectors are stored as BLOBs (little-endian float32 arrays) and similarity
// is computed in the Go application layer. Collections here are small (one
// exhibit's reference text), so a full scan per collection is cheap and
// avoids a native vector extension dependency.
// ============================================================================

// float32ArrayToBLOB converts a []float32 to a little-endian BLOB.
func float32ArrayToBLOB(vec []float32) ([]byte, error) {
	if len(vec) == 0 {
		return nil, errors.New("empty vector")
	}
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf, nil
}

// blobToFloat32Array converts a BLOB back to a float32 array.
// This is the inverse of float32ArrayToBLOB.
func blobToFloat32Array(blob []byte) ([]float32, error) {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil, errors.Errorf("invalid BLOB length: %d", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Returns 0 for mismatched dimensions or zero-magnitude vectors.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

func (d *DB) CreateDocumentChunks(ctx context.Context, creates []*store.CreateDocumentChunk) error {
	if len(creates) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt := `INSERT INTO document_chunk (location, class_name, content, source, embedding, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now().Unix()
	for _, create := range creates {
		blob, err := float32ArrayToBLOB(create.Embedding)
		if err != nil {
			return errors.Wrap(err, "failed to encode embedding")
		}
		if _, err := tx.ExecContext(ctx, stmt,
			create.Location,
			create.ClassName,
			create.Content,
			create.Source,
			blob,
			now,
		); err != nil {
			return errors.Wrap(err, "failed to insert document chunk")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit document chunks")
}

// SearchChunkCandidates loads the collection for the exhibit key and ranks
// chunks by cosine similarity in the application layer.
func (d *DB) SearchChunkCandidates(ctx context.Context, opts *store.ChunkSearchOptions) ([]*store.ChunkCandidate, error) {
	query := `SELECT id, location, class_name, content, source, embedding, created_ts
		FROM document_chunk
		WHERE location = ? AND class_name = ?`

	rows, err := d.db.QueryContext(ctx, query, opts.Key.Location, opts.Key.ClassName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query document chunks")
	}
	defer rows.Close()

	candidates := []*store.ChunkCandidate{}
	for rows.Next() {
		chunk := &store.DocumentChunk{}
		var blob []byte
		if err := rows.Scan(
			&chunk.ID,
			&chunk.Location,
			&chunk.ClassName,
			&chunk.Content,
			&chunk.Source,
			&blob,
			&chunk.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan document chunk")
		}
		embedding, err := blobToFloat32Array(blob)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode embedding for chunk %d", chunk.ID)
		}
		candidates = append(candidates, &store.ChunkCandidate{
			Chunk:     chunk,
			Embedding: embedding,
			Score:     cosineSimilarity(opts.Vector, embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate document chunks")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if opts.Limit > 0 && len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}
	return candidates, nil
}

func (d *DB) CountDocumentChunks(ctx context.Context, key store.ExhibitKey) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_chunk WHERE location = ? AND class_name = ?`,
		key.Location, key.ClassName,
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count document chunks")
	}
	return count, nil
}

func (d *DB) DeleteDocumentChunks(ctx context.Context, key store.ExhibitKey) error {
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM document_chunk WHERE location = ? AND class_name = ?`,
		key.Location, key.ClassName,
	)
	return errors.Wrap(err, "failed to delete document chunks")
}

func (d *DB) ListExhibitKeys(ctx context.Context) ([]store.ExhibitKey, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT DISTINCT location, class_name FROM document_chunk ORDER BY location, class_name`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list exhibit keys")
	}
	defer rows.Close()

	keys := []store.ExhibitKey{}
	for rows.Next() {
		var key store.ExhibitKey
		if err := rows.Scan(&key.Location, &key.ClassName); err != nil {
			return nil, errors.Wrap(err, "failed to scan exhibit key")
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
