package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/finder/store"
)

func TestSettingStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, ok, err := ts.Get(ctx, store.SettingDefaultSort)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ts.Set(ctx, store.SettingDefaultSort, "name-asc"))
	v, ok, err := ts.Get(ctx, store.SettingDefaultSort)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "name-asc", v)

	require.NoError(t, ts.Set(ctx, store.SettingDefaultSort, "hours-desc"))
	v, _, err = ts.Get(ctx, store.SettingDefaultSort)
	require.NoError(t, err)
	assert.Equal(t, "hours-desc", v)

	require.NoError(t, ts.Remove(ctx, store.SettingDefaultSort))
	_, ok, err = ts.Get(ctx, store.SettingDefaultSort)
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing twice is fine.
	require.NoError(t, ts.Remove(ctx, store.SettingDefaultSort))
	assert.Error(t, ts.Set(ctx, "", "x"))
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	require.NoError(t, ts.Migrate(ctx))

	latest, err := ts.LatestSchemaVersion()
	require.NoError(t, err)
	v, ok, err := ts.Get(ctx, store.SettingSchemaVersion)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, latest, mustAtoi(t, v))
	assert.GreaterOrEqual(t, latest, 1)
}
