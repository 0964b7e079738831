package postgres

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/docent/store"
)

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
		VALUES ($1, $2, $3, $4, $5, $6)`
	now := time.Now().Unix()
	for _, create := range creates {
		if _, err := tx.ExecContext(ctx, stmt,
			create.Location,
			create.ClassName,
			create.Content,
			create.Source,
			pgvector.NewVector(create.Embedding),
			now,
		); err != nil {
			return errors.Wrap(err, "failed to insert document chunk")
		}
	}

	return errors.Wrap(tx.Commit(), "failed to commit document chunks")
}

// SearchChunkCandidates performs vector similarity search using pgvector.
// The <=> operator computes cosine distance (1 - cosine_similarity).
func (d *DB) SearchChunkCandidates(ctx context.Context, opts *store.ChunkSearchOptions) ([]*store.ChunkCandidate, error) {
	query := `
		SELECT
			id, location, class_name, content, source, embedding, created_ts,
			1 - (embedding <=> $1) AS score
		FROM document_chunk
		WHERE location = $2 AND class_name = $3
		ORDER BY embedding <=> $1
		LIMIT $4
	`

	rows, err := d.db.QueryContext(ctx, query,
		pgvector.NewVector(opts.Vector),
		opts.Key.Location,
		opts.Key.ClassName,
		opts.Limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search document chunks")
	}
	defer rows.Close()

	candidates := []*store.ChunkCandidate{}
	for rows.Next() {
		chunk := &store.DocumentChunk{}
		var vector pgvector.Vector
		var score float32
		if err := rows.Scan(
			&chunk.ID,
			&chunk.Location,
			&chunk.ClassName,
			&chunk.Content,
			&chunk.Source,
			&vector,
			&chunk.CreatedTs,
			&score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan document chunk")
		}
		candidates = append(candidates, &store.ChunkCandidate{
			Chunk:     chunk,
			Embedding: vector.Slice(),
			Score:     score,
		})
	}
	return candidates, rows.Err()
}

func (d *DB) CountDocumentChunks(ctx context.Context, key store.ExhibitKey) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM document_chunk WHERE location = $1 AND class_name = $2`,
		key.Location, key.ClassName,
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count document chunks")
	}
	return count, nil
}

func (d *DB) DeleteDocumentChunks(ctx context.Context, key store.ExhibitKey) error {
	_, err := d.db.ExecContext(ctx,
		`DELETE FROM document_chunk WHERE location = $1 AND class_name = $2`,
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
