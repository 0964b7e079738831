// Package v1 exposes the REST API of the docent service.
package v1

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/docent/ai"
	"github.com/hrygo/docent/ai/chunker"
	"github.com/hrygo/docent/ai/llm"
	"github.com/hrygo/docent/ai/persona"
	"github.com/hrygo/docent/ai/retrieval"
	"github.com/hrygo/docent/internal/profile"
	"github.com/hrygo/docent/server/conversation"
	"github.com/hrygo/docent/server/indexer"
	"github.com/hrygo/docent/store"
)

// updateQueueSize bounds the deferred conversation update queue.
const updateQueueSize = 128

// APIV1Service bundles the services behind the /api/v1 surface.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	LLMService    llm.Service
	Retriever     *retrieval.Engine
	Personas      *persona.Resolver
	Conversations *conversation.Service
	Updater       *conversation.Updater
	Indexer       *indexer.Indexer
}

// NewAPIV1Service wires the AI, retrieval, persona, and conversation
// services from the runtime profile.
func NewAPIV1Service(p *profile.Profile, st *store.Store) (*APIV1Service, error) {
	aiConfig := ai.NewConfigFromProfile(p)
	if err := aiConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI configuration")
	}

	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}

	llmService, err := llm.NewService(&llm.Config{
		Provider:    aiConfig.LLM.Provider,
		Model:       aiConfig.LLM.Model,
		APIKey:      aiConfig.LLM.APIKey,
		BaseURL:     aiConfig.LLM.BaseURL,
		MaxTokens:   aiConfig.LLM.MaxTokens,
		Temperature: aiConfig.LLM.Temperature,
		Timeout:     aiConfig.LLM.Timeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create generation service")
	}

	// The summary model is optional; without one the summarizer uses its
	// deterministic formatting path.
	var summaryLLM llm.Service
	if aiConfig.Summary.Model != "" {
		summaryLLM, err = llm.NewService(&llm.Config{
			Provider: aiConfig.LLM.Provider,
			Model:    aiConfig.Summary.Model,
			APIKey:   aiConfig.Summary.APIKey,
			BaseURL:  aiConfig.Summary.BaseURL,
		})
		if err != nil {
			slog.Warn("failed to create summary model service, using deterministic summaries", "error", err)
			summaryLLM = nil
		}
	}

	conversations := conversation.NewService(st, conversation.NewSummarizer(summaryLLM), p.ContextWindow)
	updater := conversation.NewUpdater(conversations, updateQueueSize, slog.Default())
	updater.OnFailure(deferredUpdateFailuresTotal.Inc)

	retriever := retrieval.NewEngine(st, embeddingService, retrieval.Options{
		TopK:              p.RetrievalTopK,
		FetchFactor:       p.RetrievalFetchFactor,
		Lambda:            p.RetrievalLambda,
		FingerprintLength: p.FingerprintLength,
	})

	personas, err := persona.Load(p.PersonaDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load personas")
	}

	ck := chunker.New(
		chunker.WithChunkSize(p.ChunkSize),
		chunker.WithOverlap(p.ChunkOverlap),
	)

	return &APIV1Service{
		Profile:       p,
		Store:         st,
		LLMService:    llmService,
		Retriever:     retriever,
		Personas:      personas,
		Conversations: conversations,
		Updater:       updater,
		Indexer:       indexer.New(st, embeddingService, ck, 4, slog.Default()),
	}, nil
}

// RegisterRoutes registers the /api/v1 routes on the given group.
func (s *APIV1Service) RegisterRoutes(g *echo.Group) {
	g.POST("/chat", s.Chat)
	g.GET("/museums", s.ListMuseums)
	g.GET("/museums/:location/classes", s.ListClasses)
	g.GET("/rooms/:room_id/turns", s.ListRoomTurns)
	g.DELETE("/rooms/:room_id", s.DeleteRoom)
}

// Stop flushes the deferred update queue.
func (s *APIV1Service) Stop() {
	s.Updater.Stop()
}
