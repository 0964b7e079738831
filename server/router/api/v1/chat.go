package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/docent/ai/llm"
	"github.com/hrygo/docent/ai/prompt"
	"github.com/hrygo/docent/ai/retrieval"
	"github.com/hrygo/docent/server/conversation"
	"github.com/hrygo/docent/store"
)

// User-facing fallback strings. The service answers HTTP 200 with an
// apology instead of surfacing generation failures to the visitor.
const (
	apologyEmpty    = "죄송합니다. 답변을 생성하지 못했습니다. 다시 시도해주세요."
	apologyFailure  = "죄송합니다. 답변 생성 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."
	continuationTag = "\n\n(답변이 길어 일부만 표시되었습니다. 이어서 질문해 주세요.)"
)

// RoomID accepts both JSON strings and numbers, since device clients send
// numeric room identifiers.
type RoomID string

func (r *RoomID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RoomID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = RoomID(n.String())
	return nil
}

// ChatRequest is one visitor question about an exhibit.
type ChatRequest struct {
	RoomID    RoomID `json:"room_id"`
	Question  string `json:"question"`
	Location  string `json:"location"`
	ClassName string `json:"class_name"`
}

// ChatResponse carries the display-ready answer. References list the
// chunks the answer was grounded on; an empty index yields none.
type ChatResponse struct {
	RoomID     string              `json:"room_id"`
	Answer     string              `json:"answer"`
	References []*retrieval.Result `json:"references,omitempty"`
	Stats      *llm.CallStats      `json:"stats,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// Chat answers one visitor question: retrieve references for the exhibit,
// fold in the conversation summary, generate, normalize for display, and
// defer the conversation update past the response.
func (s *APIV1Service) Chat(c echo.Context) error {
	start := time.Now()
	ctx := c.Request().Context()
	requestID := shortuuid.New()

	req := &ChatRequest{}
	if err := c.Bind(req); err != nil {
		chatRequestsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, &errorResponse{Message: "malformed request body"})
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		chatRequestsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, &errorResponse{Message: "question is required"})
	}
	if strings.TrimSpace(req.ClassName) == "" {
		chatRequestsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, &errorResponse{Message: "class_name is required"})
	}

	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = s.Profile.DefaultMuseum
	}
	key := store.ExhibitKey{Location: location, ClassName: strings.TrimSpace(req.ClassName)}
	if err := key.Validate(); err != nil {
		chatRequestsTotal.WithLabelValues("invalid").Inc()
		return c.JSON(http.StatusBadRequest, &errorResponse{Message: err.Error()})
	}

	// A new room gets an identifier here so the client can continue the
	// conversation.
	roomID := string(req.RoomID)
	if roomID == "" {
		roomID = shortuuid.New()
	}

	logger := slog.With("request_id", requestID, "room_id", roomID, "key", key.String())
	logger.Info("chat request received", "question_length", len(req.Question))

	references := s.Retriever.Retrieve(ctx, key, req.Question)
	retrievalResultsCount.Observe(float64(len(references)))

	summary, _ := s.Conversations.GetSummary(ctx, roomID)
	personaText := s.Personas.Resolve(key.Location, key.ClassName)
	messages := prompt.Assemble(personaText, key, references, summary, req.Question)

	answer, stats, outcome := s.generate(ctx, logger, messages)

	chatRequestsTotal.WithLabelValues(outcome).Inc()
	chatDurationSeconds.Observe(time.Since(start).Seconds())
	logger.Info("chat request answered",
		"outcome", outcome,
		"references", len(references),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	// The response is already on its way conceptually; the turn log and
	// summary catch up off the request path.
	s.Updater.Enqueue(&conversation.Update{
		RoomID:   roomID,
		Question: req.Question,
		Answer:   answer,
	})

	return c.JSON(http.StatusOK, &ChatResponse{
		RoomID:     roomID,
		Answer:     answer,
		References: references,
		Stats:      stats,
	})
}

// generate runs the completion and maps every finish outcome to a
// display-ready answer. Failures degrade to apologies, never errors.
func (s *APIV1Service) generate(ctx context.Context, logger *slog.Logger, messages []llm.Message) (string, *llm.CallStats, string) {
	completion, err := s.LLMService.Chat(ctx, messages)
	if err != nil {
		logger.Error("generation failed", "error", err)
		return apologyFailure, nil, "error"
	}

	switch completion.FinishReason {
	case llm.FinishEmpty:
		logger.Warn("generation returned no content")
		return apologyEmpty, completion.Stats, "empty"
	case llm.FinishLength:
		cleaned := prompt.CleanAnswer(completion.Content)
		if cleaned == "" {
			return apologyEmpty, completion.Stats, "empty"
		}
		return cleaned + continuationTag, completion.Stats, "length"
	default:
		cleaned := prompt.CleanAnswer(completion.Content)
		if cleaned == "" {
			return apologyEmpty, completion.Stats, "empty"
		}
		return cleaned, completion.Stats, "stop"
	}
}
