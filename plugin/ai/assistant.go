package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

// SystemPrompt frames every restaurant conversation.
const SystemPrompt = "You are a helpful restaurant information assistant. You provide concise, helpful information " +
	"about restaurants including reviews, recommendations, menu highlights, and general atmosphere. " +
	"Keep responses brief but informative (2-3 paragraphs max). If you don't have specific information " +
	"about a restaurant, provide general guidance based on the cuisine type."

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Restaurant is the context a conversation is about.
type Restaurant struct {
	Name    string `json:"name"`
	Cuisine string `json:"cuisine"`
	Address string `json:"address"`
}

// InitialQuery is the opening question sent for a restaurant.
func InitialQuery(r Restaurant) string {
	return fmt.Sprintf("Tell me about the restaurant \"%s\" which serves %s cuisine. Located at: %s. "+
		"What's the vibe, what should I order, and any tips for visiting?",
		r.Name, strings.ReplaceAll(r.Cuisine, "_", " "), r.Address)
}

// InitialDisplay is the short form of the opening question shown to users.
func InitialDisplay(r Restaurant) string {
	return "Tell me about " + r.Name
}

// Conversation is a multi-turn chat about a single restaurant.
type Conversation struct {
	ID         string
	Restaurant Restaurant
	History    []Message

	mu sync.Mutex
}

// NewConversation starts an empty conversation about a restaurant.
func NewConversation(r Restaurant) *Conversation {
	return &Conversation{
		ID:         shortuuid.New(),
		Restaurant: r,
	}
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.History...)
}

// Assistant answers questions about restaurants.
type Assistant struct {
	llm LLMService
	sem *semaphore.Weighted
}

// NewAssistant creates an assistant allowing at most maxConcurrent chats in flight.
func NewAssistant(llm LLMService, maxConcurrent int64) *Assistant {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Assistant{
		llm: llm,
		sem: semaphore.NewWeighted(maxConcurrent),
	}
}

// Ask sends message within conv. The history is reset when initial is set or
// the restaurant changes. An empty message on an initial query sends the
// standard opening question. The exchange is appended only on success.
func (a *Assistant) Ask(ctx context.Context, conv *Conversation, restaurant Restaurant, message string, initial bool) (string, error) {
	if a.llm == nil {
		return "", ErrNotConfigured
	}
	message = strings.TrimSpace(message)
	if message == "" {
		if !initial {
			return "", errors.New("message is required")
		}
		message = InitialQuery(restaurant)
	}

	conv.mu.Lock()
	if initial || conv.Restaurant.Name != restaurant.Name {
		conv.History = nil
		conv.Restaurant = restaurant
	}
	messages := make([]Message, 0, len(conv.History)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: SystemPrompt})
	messages = append(messages, conv.History...)
	messages = append(messages, Message{Role: RoleUser, Content: message})
	conv.mu.Unlock()

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "chat not started")
	}
	defer a.sem.Release(1)

	reply, err := a.llm.Chat(ctx, messages)
	if err != nil {
		return "", err
	}

	conv.mu.Lock()
	conv.History = append(conv.History,
		Message{Role: RoleUser, Content: message},
		Message{Role: RoleAssistant, Content: reply})
	conv.mu.Unlock()
	return reply, nil
}
