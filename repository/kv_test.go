package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicememo/config"
)

func newTestStore(t *testing.T) KeyValue {
	t.Helper()

	cfg := &config.Config{
		Storage: config.Storage{
			SqlitePath: filepath.Join(t.TempDir(), "test.db"),
		},
	}
	kv, err := New(cfg)
	require.NoError(t, err)
	return kv
}

func TestGetAbsentKey(t *testing.T) {
	kv := newTestStore(t)

	value, ok, err := kv.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, value)
}

func TestSetAndGet(t *testing.T) {
	kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "records", `[{"id":"1"}]`))

	value, ok, err := kv.Get(ctx, "records")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, value)
}

func TestSetOverwrites(t *testing.T) {
	kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "records", "first"))
	require.NoError(t, kv.Set(ctx, "records", "second"))

	value, ok, err := kv.Get(ctx, "records")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", value)
}

func TestKeysAreIndependent(t *testing.T) {
	kv := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "settings", "{}"))
	require.NoError(t, kv.Set(ctx, "templates", "[]"))

	settings, ok, err := kv.Get(ctx, "settings")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "{}", settings)

	templates, ok, err := kv.Get(ctx, "templates")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", templates)
}
