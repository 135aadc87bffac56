package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatesListIncludesSystemTemplates(t *testing.T) {
	svc := NewTemplateService(newFakeKV())

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, len(systemTemplates))
	for _, tpl := range list {
		assert.True(t, tpl.IsSystem)
	}
}

func TestTemplatesUserLifecycle(t *testing.T) {
	svc := NewTemplateService(newFakeKV())
	ctx := context.Background()

	tpl, err := svc.Add(ctx, "Meeting Notes", "Turn this into meeting notes.")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tpl.ID, "user-"))
	assert.False(t, tpl.IsSystem)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, len(systemTemplates)+1)

	updated, err := svc.Update(ctx, tpl.ID, "Minutes", "Write meeting minutes.")
	require.NoError(t, err)
	assert.Equal(t, "Minutes", updated.Name)

	got, err := svc.Get(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write meeting minutes.", got.Prompt)

	require.NoError(t, svc.Delete(ctx, tpl.ID))
	_, err = svc.Get(ctx, tpl.ID)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestSystemTemplatesAreImmutable(t *testing.T) {
	svc := NewTemplateService(newFakeKV())
	ctx := context.Background()

	_, err := svc.Update(ctx, "system-summary", "x", "y")
	assert.ErrorIs(t, err, ErrSystemTemplate)

	err = svc.Delete(ctx, "system-summary")
	assert.ErrorIs(t, err, ErrSystemTemplate)
}

func TestTemplatesUnknownId(t *testing.T) {
	svc := NewTemplateService(newFakeKV())
	ctx := context.Background()

	_, err := svc.Update(ctx, "user-missing", "x", "y")
	assert.ErrorIs(t, err, ErrTemplateNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "user-missing"), ErrTemplateNotFound)
}
