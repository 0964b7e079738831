package store

import (
	"github.com/pkg/errors"
)

// ExhibitKey identifies one vector collection and one persona slot.
// Collections are partitioned strictly by key: a search against one key
// never returns chunks embedded under another.
type ExhibitKey struct {
	Location  string
	ClassName string
}

func (k ExhibitKey) String() string {
	return k.Location + "/" + k.ClassName
}

// Validate checks that both key components are present.
func (k ExhibitKey) Validate() error {
	if k.Location == "" {
		return errors.New("exhibit key location cannot be empty")
	}
	if k.ClassName == "" {
		return errors.New("exhibit key class name cannot be empty")
	}
	return nil
}

// DocumentChunk is a bounded-size slice of reference text, the unit of
// embedding and retrieval. Immutable after creation.
type DocumentChunk struct {
	ID        int64
	Location  string
	ClassName string
	Content   string
	Source    string // originating file name
	CreatedTs int64
}

// Key returns the exhibit key the chunk was embedded under.
func (c *DocumentChunk) Key() ExhibitKey {
	return ExhibitKey{Location: c.Location, ClassName: c.ClassName}
}

// CreateDocumentChunk is the create condition for a document chunk.
type CreateDocumentChunk struct {
	Location  string
	ClassName string
	Content   string
	Source    string
	Embedding []float32
}

// ChunkCandidate is a vector search result: the chunk, its stored embedding
// and the cosine similarity score against the query vector. The embedding is
// carried along so callers can trade relevance against mutual redundancy.
type ChunkCandidate struct {
	Chunk     *DocumentChunk
	Embedding []float32
	Score     float32 // cosine similarity, higher is more similar
}

// ChunkSearchOptions represents the options for chunk vector search.
type ChunkSearchOptions struct {
	Key    ExhibitKey
	Vector []float32
	Limit  int
}

// Validate validates the ChunkSearchOptions.
func (o *ChunkSearchOptions) Validate() error {
	if err := o.Key.Validate(); err != nil {
		return err
	}
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 10
	}
	return nil
}
