package store

import (
	"context"
	"time"

	"github.com/hrygo/finder/internal/profile"
	"github.com/hrygo/finder/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	settingCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		settingCache: cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        1000,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	s.settingCache.Close()
	return s.driver.Close()
}

func (s *Store) UpsertFavorite(ctx context.Context, upsert *Favorite) (*Favorite, error) {
	return s.driver.UpsertFavorite(ctx, upsert)
}

func (s *Store) ListFavorites(ctx context.Context, find *FindFavorite) ([]*Favorite, error) {
	return s.driver.ListFavorites(ctx, find)
}

// GetFavorite returns the favorite with the given OSM id, or nil.
func (s *Store) GetFavorite(ctx context.Context, id int64) (*Favorite, error) {
	list, err := s.driver.ListFavorites(ctx, &FindFavorite{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) DeleteFavorite(ctx context.Context, delete *DeleteFavorite) error {
	return s.driver.DeleteFavorite(ctx, delete)
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the conversation with the given UID, or nil.
func (s *Store) GetConversation(ctx context.Context, uid string) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, &FindConversation{UID: &uid})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (s *Store) UpdateConversation(ctx context.Context, update *UpdateConversation) (*Conversation, error) {
	return s.driver.UpdateConversation(ctx, update)
}

// DeleteConversation removes a conversation along with its messages.
func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	if err := s.driver.DeleteChatMessages(ctx, &DeleteChatMessage{ConversationID: delete.ID}); err != nil {
		return err
	}
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) CreateChatMessage(ctx context.Context, create *ChatMessage) (*ChatMessage, error) {
	return s.driver.CreateChatMessage(ctx, create)
}

func (s *Store) ListChatMessages(ctx context.Context, find *FindChatMessage) ([]*ChatMessage, error) {
	return s.driver.ListChatMessages(ctx, find)
}

func (s *Store) DeleteChatMessages(ctx context.Context, delete *DeleteChatMessage) error {
	return s.driver.DeleteChatMessages(ctx, delete)
}
