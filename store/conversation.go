package store

// Conversation is a chat thread about one restaurant.
type Conversation struct {
	ID                int32
	UID               string
	RestaurantName    string
	RestaurantCuisine string
	RestaurantAddress string
	CreatedTs         int64
	UpdatedTs         int64
}

type FindConversation struct {
	ID  *int32
	UID *string
}

type UpdateConversation struct {
	ID                int32
	RestaurantName    *string
	RestaurantCuisine *string
	RestaurantAddress *string
	UpdatedTs         *int64
}

type DeleteConversation struct {
	ID int32
}

type ChatMessageRole string

const (
	ChatMessageRoleUser      ChatMessageRole = "user"
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
)

type ChatMessage struct {
	ID             int32
	ConversationID int32
	Role           ChatMessageRole
	Content        string
	CreatedTs      int64
}

type FindChatMessage struct {
	ConversationID *int32
}

type DeleteChatMessage struct {
	ConversationID int32
}
