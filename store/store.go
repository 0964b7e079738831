package store

import (
	"context"

	"github.com/hrygo/docent/internal/profile"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

func (s *Store) CreateDocumentChunks(ctx context.Context, creates []*CreateDocumentChunk) error {
	return s.driver.CreateDocumentChunks(ctx, creates)
}

// SearchChunkCandidates returns candidate chunks ranked by cosine similarity.
// A key with no collection yields an empty slice, not an error.
func (s *Store) SearchChunkCandidates(ctx context.Context, opts *ChunkSearchOptions) ([]*ChunkCandidate, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.SearchChunkCandidates(ctx, opts)
}

func (s *Store) CountDocumentChunks(ctx context.Context, key ExhibitKey) (int, error) {
	return s.driver.CountDocumentChunks(ctx, key)
}

func (s *Store) DeleteDocumentChunks(ctx context.Context, key ExhibitKey) error {
	return s.driver.DeleteDocumentChunks(ctx, key)
}

func (s *Store) ListExhibitKeys(ctx context.Context) ([]ExhibitKey, error) {
	return s.driver.ListExhibitKeys(ctx)
}

func (s *Store) CreateConversationTurn(ctx context.Context, create *CreateConversationTurn) (*ConversationTurn, error) {
	return s.driver.CreateConversationTurn(ctx, create)
}

func (s *Store) ListConversationTurns(ctx context.Context, find *FindConversationTurns) ([]*ConversationTurn, error) {
	return s.driver.ListConversationTurns(ctx, find)
}

func (s *Store) UpsertConversationSummary(ctx context.Context, roomID string, summary string) error {
	return s.driver.UpsertConversationSummary(ctx, roomID, summary)
}

func (s *Store) GetConversationSummary(ctx context.Context, roomID string) (string, bool, error) {
	return s.driver.GetConversationSummary(ctx, roomID)
}

func (s *Store) DeleteConversation(ctx context.Context, roomID string) error {
	return s.driver.DeleteConversation(ctx, roomID)
}
