package test

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/finder/store"
)

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	v, err := strconv.Atoi(s)
	require.NoError(t, err)
	return v
}

func TestConversationStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	conv, err := ts.CreateConversation(ctx, &store.Conversation{
		UID:               "conv-1",
		RestaurantName:    "Chez Test",
		RestaurantCuisine: "french",
		RestaurantAddress: "12 Rue de Rivoli",
	})
	require.NoError(t, err)
	require.Greater(t, conv.ID, int32(0))

	for _, m := range []struct {
		role    store.ChatMessageRole
		content string
	}{
		{store.ChatMessageRoleUser, "What's good?"},
		{store.ChatMessageRoleAssistant, "The onion soup."},
	} {
		_, err := ts.CreateChatMessage(ctx, &store.ChatMessage{ConversationID: conv.ID, Role: m.role, Content: m.content})
		require.NoError(t, err)
	}

	msgs, err := ts.ListChatMessages(ctx, &store.FindChatMessage{ConversationID: &conv.ID})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, store.ChatMessageRoleUser, msgs[0].Role)
	assert.Equal(t, "The onion soup.", msgs[1].Content)

	name := "Joe's Diner"
	updated, err := ts.UpdateConversation(ctx, &store.UpdateConversation{ID: conv.ID, RestaurantName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Joe's Diner", updated.RestaurantName)
	assert.Equal(t, "french", updated.RestaurantCuisine)

	got, err := ts.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, conv.ID, got.ID)

	require.NoError(t, ts.DeleteConversation(ctx, &store.DeleteConversation{ID: conv.ID}))
	got, err = ts.GetConversation(ctx, "conv-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	msgs, err = ts.ListChatMessages(ctx, &store.FindChatMessage{ConversationID: &conv.ID})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
