// Package chat keeps restaurant conversations in the store and answers them
// through the AI assistant.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/finder/plugin/ai"
	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/internal/observability"
	"github.com/hrygo/finder/store"
)

// Store is the interface for store operations needed by the chat service.
type Store interface {
	CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error)
	GetConversation(ctx context.Context, uid string) (*store.Conversation, error)
	UpdateConversation(ctx context.Context, update *store.UpdateConversation) (*store.Conversation, error)
	DeleteConversation(ctx context.Context, delete *store.DeleteConversation) error
	CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error)
	ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error)
	DeleteChatMessages(ctx context.Context, delete *store.DeleteChatMessage) error
}

// AskRequest is one chat turn. An empty ConversationID starts a new conversation.
type AskRequest struct {
	ConversationID string        `json:"conversation_id"`
	Restaurant     ai.Restaurant `json:"restaurant"`
	Message        string        `json:"message"`
	Initial        bool          `json:"initial"`
}

// AskResponse carries the reply as markdown and rendered HTML.
type AskResponse struct {
	ConversationID string `json:"conversation_id"`
	// Display is the user message as shown in the transcript.
	Display string `json:"display"`
	Reply   string `json:"reply"`
	HTML    string `json:"html"`
}

type Service struct {
	store     Store
	assistant *ai.Assistant
	now       func() time.Time
}

// NewService creates a chat service. A nil assistant disables chat.
func NewService(st Store, assistant *ai.Assistant) *Service {
	return &Service{store: st, assistant: assistant, now: time.Now}
}

// Enabled reports whether an assistant is configured.
func (s *Service) Enabled() bool {
	return s.assistant != nil
}

// Ask answers a message about a restaurant and records the exchange.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if s.assistant == nil {
		return nil, apierrors.LLMUnavailable("AI chat is not configured", ai.ErrNotConfigured)
	}
	req.Restaurant.Name = strings.TrimSpace(req.Restaurant.Name)
	if req.Restaurant.Name == "" {
		return nil, apierrors.InvalidArgument("restaurant name is required")
	}
	if strings.TrimSpace(req.Message) == "" && !req.Initial {
		return nil, apierrors.InvalidArgument("message is required")
	}

	stored, err := s.load(ctx, req.ConversationID)
	if err != nil {
		return nil, err
	}
	conv, err := s.rebuild(ctx, stored)
	if err != nil {
		return nil, err
	}
	before := len(conv.History)

	reply, err := s.assistant.Ask(ctx, conv, req.Restaurant, req.Message, req.Initial)
	if err != nil {
		return nil, mapError(err)
	}

	history := conv.Messages()
	reset := len(history) < before+2
	if err := s.persist(ctx, stored, req.Restaurant, reset, history[len(history)-2:]); err != nil {
		return nil, err
	}

	html, err := ai.RenderMarkdown(reply)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to render reply", "error", err)
		html = ""
	}

	display := strings.TrimSpace(req.Message)
	if display == "" {
		display = ai.InitialDisplay(req.Restaurant)
	}
	return &AskResponse{
		ConversationID: stored.UID,
		Display:        display,
		Reply:          reply,
		HTML:           html,
	}, nil
}

// History returns the stored messages of a conversation, oldest first.
func (s *Service) History(ctx context.Context, uid string) ([]*store.ChatMessage, error) {
	stored, err := s.store.GetConversation(ctx, uid)
	if err != nil {
		return nil, apierrors.Internal("failed to get conversation", err)
	}
	if stored == nil {
		return nil, apierrors.NotFound("conversation not found")
	}
	messages, err := s.store.ListChatMessages(ctx, &store.FindChatMessage{ConversationID: &stored.ID})
	if err != nil {
		return nil, apierrors.Internal("failed to list chat messages", err)
	}
	return messages, nil
}

// Clear deletes a conversation and its messages.
func (s *Service) Clear(ctx context.Context, uid string) error {
	stored, err := s.store.GetConversation(ctx, uid)
	if err != nil {
		return apierrors.Internal("failed to get conversation", err)
	}
	if stored == nil {
		return apierrors.NotFound("conversation not found")
	}
	if err := s.store.DeleteConversation(ctx, &store.DeleteConversation{ID: stored.ID}); err != nil {
		return apierrors.Internal("failed to delete conversation", err)
	}
	return nil
}

// load returns the stored conversation, creating one when uid is empty or unknown.
func (s *Service) load(ctx context.Context, uid string) (*store.Conversation, error) {
	if uid != "" {
		stored, err := s.store.GetConversation(ctx, uid)
		if err != nil {
			return nil, apierrors.Internal("failed to get conversation", err)
		}
		if stored != nil {
			return stored, nil
		}
	}
	conv := ai.NewConversation(ai.Restaurant{})
	if uid != "" {
		conv.ID = uid
	}
	now := s.now().Unix()
	stored, err := s.store.CreateConversation(ctx, &store.Conversation{
		UID:       conv.ID,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return nil, apierrors.Internal("failed to create conversation", err)
	}
	return stored, nil
}

func (s *Service) rebuild(ctx context.Context, stored *store.Conversation) (*ai.Conversation, error) {
	conv := &ai.Conversation{
		ID: stored.UID,
		Restaurant: ai.Restaurant{
			Name:    stored.RestaurantName,
			Cuisine: stored.RestaurantCuisine,
			Address: stored.RestaurantAddress,
		},
	}
	messages, err := s.store.ListChatMessages(ctx, &store.FindChatMessage{ConversationID: &stored.ID})
	if err != nil {
		return nil, apierrors.Internal("failed to list chat messages", err)
	}
	for _, m := range messages {
		conv.History = append(conv.History, ai.Message{Role: string(m.Role), Content: m.Content})
	}
	return conv, nil
}

// persist stores the latest exchange. When the assistant reset the history the
// stored messages are dropped first.
func (s *Service) persist(ctx context.Context, stored *store.Conversation, r ai.Restaurant, reset bool, exchange []ai.Message) error {
	if reset {
		if err := s.store.DeleteChatMessages(ctx, &store.DeleteChatMessage{ConversationID: stored.ID}); err != nil {
			return apierrors.Internal("failed to reset conversation", err)
		}
	}
	now := s.now().Unix()
	for _, m := range exchange {
		if _, err := s.store.CreateChatMessage(ctx, &store.ChatMessage{
			ConversationID: stored.ID,
			Role:           store.ChatMessageRole(m.Role),
			Content:        m.Content,
			CreatedTs:      now,
		}); err != nil {
			return apierrors.Internal("failed to save chat message", err)
		}
	}
	if _, err := s.store.UpdateConversation(ctx, &store.UpdateConversation{
		ID:                stored.ID,
		RestaurantName:    &r.Name,
		RestaurantCuisine: &r.Cuisine,
		RestaurantAddress: &r.Address,
		UpdatedTs:         &now,
	}); err != nil {
		return apierrors.Internal("failed to update conversation", err)
	}
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return apierrors.LLMUnavailable("AI chat is not configured", err)
	case errors.Is(err, ai.ErrUnauthorized):
		return apierrors.Unauthorized("AI provider rejected the API key", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apierrors.LLMUnavailable("AI request timed out", err)
	default:
		return apierrors.LLMUnavailable("Sorry, I couldn't get information at this time.", err)
	}
}
