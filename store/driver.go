package store

import "context"

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() any
	Close() error
	Migrate(ctx context.Context) error

	// Document chunk collection
	CreateDocumentChunks(ctx context.Context, creates []*CreateDocumentChunk) error
	SearchChunkCandidates(ctx context.Context, opts *ChunkSearchOptions) ([]*ChunkCandidate, error)
	CountDocumentChunks(ctx context.Context, key ExhibitKey) (int, error)
	DeleteDocumentChunks(ctx context.Context, key ExhibitKey) error
	ListExhibitKeys(ctx context.Context) ([]ExhibitKey, error)

	// Conversation log and derived summary
	CreateConversationTurn(ctx context.Context, create *CreateConversationTurn) (*ConversationTurn, error)
	ListConversationTurns(ctx context.Context, find *FindConversationTurns) ([]*ConversationTurn, error)
	UpsertConversationSummary(ctx context.Context, roomID string, summary string) error
	GetConversationSummary(ctx context.Context, roomID string) (string, bool, error)
	DeleteConversation(ctx context.Context, roomID string) error
}
