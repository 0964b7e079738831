package v1

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/docent/store"
)

// MuseumsResponse lists the locations with at least one built collection.
type MuseumsResponse struct {
	Museums []string `json:"museums"`
}

// ClassesResponse lists the indexed exhibit classes of one location.
type ClassesResponse struct {
	Location string   `json:"location"`
	Classes  []string `json:"classes"`
}

// TurnsResponse is the chronological turn log of one room.
type TurnsResponse struct {
	RoomID string                    `json:"room_id"`
	Turns  []*store.ConversationTurn `json:"turns"`
}

// ListMuseums returns the locations that have indexed collections.
func (s *APIV1Service) ListMuseums(c echo.Context) error {
	keys, err := s.Store.ListExhibitKeys(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &errorResponse{Message: "failed to list museums"})
	}

	seen := make(map[string]struct{})
	museums := []string{}
	for _, key := range keys {
		if _, ok := seen[key.Location]; ok {
			continue
		}
		seen[key.Location] = struct{}{}
		museums = append(museums, key.Location)
	}
	sort.Strings(museums)

	return c.JSON(http.StatusOK, &MuseumsResponse{Museums: museums})
}

// ListClasses returns the indexed exhibit classes under one location.
func (s *APIV1Service) ListClasses(c echo.Context) error {
	location := c.Param("location")

	keys, err := s.Store.ListExhibitKeys(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &errorResponse{Message: "failed to list classes"})
	}

	classes := []string{}
	for _, key := range keys {
		if key.Location == location {
			classes = append(classes, key.ClassName)
		}
	}
	sort.Strings(classes)

	return c.JSON(http.StatusOK, &ClassesResponse{Location: location, Classes: classes})
}

// ListRoomTurns returns the full turn log of a room in chronological order.
func (s *APIV1Service) ListRoomTurns(c echo.Context) error {
	roomID := c.Param("room_id")
	if roomID == "" {
		return c.JSON(http.StatusBadRequest, &errorResponse{Message: "room_id is required"})
	}

	turns, err := s.Conversations.ListTurns(c.Request().Context(), roomID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, &errorResponse{Message: "failed to list turns"})
	}

	return c.JSON(http.StatusOK, &TurnsResponse{RoomID: roomID, Turns: turns})
}

// DeleteRoom removes a room's turn log and summary. Destructive and
// immediate; subsequent questions in the room start a fresh conversation.
func (s *APIV1Service) DeleteRoom(c echo.Context) error {
	roomID := c.Param("room_id")
	if roomID == "" {
		return c.JSON(http.StatusBadRequest, &errorResponse{Message: "room_id is required"})
	}

	if err := s.Conversations.Delete(c.Request().Context(), roomID); err != nil {
		return c.JSON(http.StatusInternalServerError, &errorResponse{Message: "failed to delete room"})
	}

	return c.NoContent(http.StatusNoContent)
}
