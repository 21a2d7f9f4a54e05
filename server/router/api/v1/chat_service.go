package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/server/service/chat"
)

// Ask sends one chat turn about a restaurant.
// POST /api/v1/chat
func (s *APIV1Service) Ask(c echo.Context) error {
	var req chat.AskRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.InvalidArgument("invalid chat request")
	}
	resp, err := s.Chat.Ask(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

type chatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedTs int64  `json:"created_ts"`
}

// GetChatHistory returns the messages of a conversation.
// GET /api/v1/chat/:id
func (s *APIV1Service) GetChatHistory(c echo.Context) error {
	messages, err := s.Chat.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	out := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, chatMessage{Role: string(m.Role), Content: m.Content, CreatedTs: m.CreatedTs})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"conversation_id": c.Param("id"),
		"messages":        out,
	})
}

// ClearChat deletes a conversation.
// DELETE /api/v1/chat/:id
func (s *APIV1Service) ClearChat(c echo.Context) error {
	if err := s.Chat.Clear(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
