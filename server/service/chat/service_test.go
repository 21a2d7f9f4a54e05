package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/finder/plugin/ai"
	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/store"
)

// MockLLM is a mock implementation of ai.LLMService.
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

// MockStoreForChat keeps conversations and messages in memory.
type MockStoreForChat struct {
	mu            sync.Mutex
	nextID        int32
	conversations map[int32]*store.Conversation
	messages      []*store.ChatMessage
}

func newMockStore() *MockStoreForChat {
	return &MockStoreForChat{conversations: map[int32]*store.Conversation{}}
}

func (m *MockStoreForChat) CreateConversation(_ context.Context, create *store.Conversation) (*store.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c := *create
	c.ID = m.nextID
	m.conversations[c.ID] = &c
	out := c
	return &out, nil
}

func (m *MockStoreForChat) GetConversation(_ context.Context, uid string) (*store.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.conversations {
		if c.UID == uid {
			out := *c
			return &out, nil
		}
	}
	return nil, nil
}

func (m *MockStoreForChat) UpdateConversation(_ context.Context, update *store.UpdateConversation) (*store.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conversations[update.ID]
	if !ok {
		return nil, errors.New("conversation not found")
	}
	if update.RestaurantName != nil {
		c.RestaurantName = *update.RestaurantName
	}
	if update.RestaurantCuisine != nil {
		c.RestaurantCuisine = *update.RestaurantCuisine
	}
	if update.RestaurantAddress != nil {
		c.RestaurantAddress = *update.RestaurantAddress
	}
	if update.UpdatedTs != nil {
		c.UpdatedTs = *update.UpdatedTs
	}
	out := *c
	return &out, nil
}

func (m *MockStoreForChat) DeleteConversation(ctx context.Context, del *store.DeleteConversation) error {
	if err := m.DeleteChatMessages(ctx, &store.DeleteChatMessage{ConversationID: del.ID}); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, del.ID)
	return nil
}

func (m *MockStoreForChat) CreateChatMessage(_ context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := *create
	msg.ID = int32(len(m.messages) + 1)
	m.messages = append(m.messages, &msg)
	return &msg, nil
}

func (m *MockStoreForChat) ListChatMessages(_ context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.ChatMessage
	for _, msg := range m.messages {
		if find.ConversationID == nil || msg.ConversationID == *find.ConversationID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *MockStoreForChat) DeleteChatMessages(_ context.Context, del *store.DeleteChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.ConversationID != del.ConversationID {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return nil
}

var (
	bistro = ai.Restaurant{Name: "Le Bistro", Cuisine: "french", Address: "1 Rue Cler"}
	sushi  = ai.Restaurant{Name: "Sushi Go", Cuisine: "japanese", Address: "2 Main St"}
)

func TestAsk_InitialThenFollowUp(t *testing.T) {
	ctx := context.Background()
	llm := new(MockLLM)
	st := newMockStore()
	svc := NewService(st, ai.NewAssistant(llm, 1))

	llm.On("Chat", mock.Anything, mock.MatchedBy(func(msgs []ai.Message) bool { return len(msgs) == 2 })).
		Return("**Great** bistro.", nil).Once()
	llm.On("Chat", mock.Anything, mock.MatchedBy(func(msgs []ai.Message) bool {
		return len(msgs) == 4 && msgs[1].Content == ai.InitialQuery(bistro) && msgs[3].Content == "Is it pricey?"
	})).Return("Moderately.", nil).Once()

	resp, err := svc.Ask(ctx, AskRequest{Restaurant: bistro, Initial: true})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ConversationID)
	assert.Equal(t, "Tell me about Le Bistro", resp.Display)
	assert.Equal(t, "**Great** bistro.", resp.Reply)
	assert.Contains(t, resp.HTML, "<strong>Great</strong>")

	resp2, err := svc.Ask(ctx, AskRequest{ConversationID: resp.ConversationID, Restaurant: bistro, Message: "Is it pricey?"})
	require.NoError(t, err)
	assert.Equal(t, resp.ConversationID, resp2.ConversationID)
	assert.Equal(t, "Moderately.", resp2.Reply)

	history, err := svc.History(ctx, resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, store.ChatMessageRoleUser, history[0].Role)
	assert.Equal(t, store.ChatMessageRoleAssistant, history[3].Role)

	stored, err := st.GetConversation(ctx, resp.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "Le Bistro", stored.RestaurantName)
	llm.AssertExpectations(t)
}

func TestAsk_RestaurantChangeResetsHistory(t *testing.T) {
	ctx := context.Background()
	llm := new(MockLLM)
	svc := NewService(newMockStore(), ai.NewAssistant(llm, 1))

	llm.On("Chat", mock.Anything, mock.Anything).Return("ok", nil)

	resp, err := svc.Ask(ctx, AskRequest{Restaurant: bistro, Initial: true})
	require.NoError(t, err)
	_, err = svc.Ask(ctx, AskRequest{ConversationID: resp.ConversationID, Restaurant: bistro, Message: "hours?"})
	require.NoError(t, err)
	_, err = svc.Ask(ctx, AskRequest{ConversationID: resp.ConversationID, Restaurant: sushi, Message: "best roll?"})
	require.NoError(t, err)

	history, err := svc.History(ctx, resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "best roll?", history[0].Content)

	last := llm.Calls[len(llm.Calls)-1].Arguments.Get(1).([]ai.Message)
	assert.Len(t, last, 2, "system prompt and the new question only")
}

func TestAsk_FailureKeepsHistory(t *testing.T) {
	ctx := context.Background()
	llm := new(MockLLM)
	svc := NewService(newMockStore(), ai.NewAssistant(llm, 1))

	llm.On("Chat", mock.Anything, mock.Anything).Return("first", nil).Once()
	llm.On("Chat", mock.Anything, mock.Anything).Return("", errors.New("boom")).Once()

	resp, err := svc.Ask(ctx, AskRequest{Restaurant: bistro, Initial: true})
	require.NoError(t, err)

	_, err = svc.Ask(ctx, AskRequest{ConversationID: resp.ConversationID, Restaurant: bistro, Message: "more?"})
	require.Error(t, err)
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeLLMUnavailable))

	history, err := svc.History(ctx, resp.ConversationID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestAsk_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewService(newMockStore(), nil).Ask(ctx, AskRequest{Restaurant: bistro, Initial: true})
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeLLMUnavailable))

	llm := new(MockLLM)
	svc := NewService(newMockStore(), ai.NewAssistant(llm, 1))

	_, err = svc.Ask(ctx, AskRequest{Restaurant: ai.Restaurant{Name: " "}, Initial: true})
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeInvalidArgument))

	_, err = svc.Ask(ctx, AskRequest{Restaurant: bistro, Message: "   "})
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeInvalidArgument))

	llm.On("Chat", mock.Anything, mock.Anything).Return("", errors.Wrap(ai.ErrUnauthorized, "status 401")).Once()
	_, err = svc.Ask(ctx, AskRequest{Restaurant: bistro, Initial: true})
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeUnauthorized))
	llm.AssertNotCalled(t, "Chat", mock.Anything, mock.MatchedBy(func(msgs []ai.Message) bool { return len(msgs) > 2 }))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	llm := new(MockLLM)
	st := newMockStore()
	svc := NewService(st, ai.NewAssistant(llm, 1))
	llm.On("Chat", mock.Anything, mock.Anything).Return("ok", nil)

	resp, err := svc.Ask(ctx, AskRequest{Restaurant: bistro, Initial: true})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, resp.ConversationID))
	assert.Empty(t, st.messages)

	err = svc.Clear(ctx, resp.ConversationID)
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeNotFound))
	_, err = svc.History(ctx, resp.ConversationID)
	assert.True(t, apierrors.IsCode(err, apierrors.ErrCodeNotFound))
}

func TestAsk_UnknownConversationIDIsCreated(t *testing.T) {
	ctx := context.Background()
	llm := new(MockLLM)
	svc := NewService(newMockStore(), ai.NewAssistant(llm, 1))
	llm.On("Chat", mock.Anything, mock.Anything).Return("ok", nil)

	resp, err := svc.Ask(ctx, AskRequest{ConversationID: "client-chosen", Restaurant: bistro, Initial: true})
	require.NoError(t, err)
	assert.Equal(t, "client-chosen", resp.ConversationID)
}
