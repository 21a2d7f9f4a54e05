package store

import (
	"context"

	"github.com/pkg/errors"
)

// Setting is a persisted key/value pair.
type Setting struct {
	Key       string
	Value     string
	UpdatedTs int64
}

type FindSetting struct {
	Key *string
}

type DeleteSetting struct {
	Key string
}

const (
	// SettingSchemaVersion holds the applied migration version.
	SettingSchemaVersion = "system.schema_version"
	// SettingDefaultSort holds the sort applied when a search names none.
	SettingDefaultSort = "search.default_sort"
)

// KV is the key/value view of the settings table.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Get returns a setting value, served from cache when possible.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := s.settingCache.Get(ctx, key); ok {
		return v.(string), true, nil
	}
	list, err := s.driver.ListSettings(ctx, &FindSetting{Key: &key})
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to get setting %q", key)
	}
	if len(list) == 0 {
		return "", false, nil
	}
	s.settingCache.Set(ctx, key, list[0].Value)
	return list[0].Value, true, nil
}

// Set stores a setting value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("setting key is required")
	}
	if _, err := s.driver.UpsertSetting(ctx, &Setting{Key: key, Value: value}); err != nil {
		return errors.Wrapf(err, "failed to set setting %q", key)
	}
	s.settingCache.Set(ctx, key, value)
	return nil
}

// Remove deletes a setting. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.driver.DeleteSetting(ctx, &DeleteSetting{Key: key}); err != nil {
		return errors.Wrapf(err, "failed to remove setting %q", key)
	}
	s.settingCache.Delete(ctx, key)
	return nil
}

func (s *Store) ListSettings(ctx context.Context, find *FindSetting) ([]*Setting, error) {
	return s.driver.ListSettings(ctx, find)
}
