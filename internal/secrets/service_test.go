package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/storage"
)

func TestServiceList(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	alice := seed(t, store, "alice")
	seed(t, store, "bob")
	require.NoError(t, store.UpdateSecret(ctx, alice.ID, "I like trains"))

	entries, err := NewService(store).List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Entry{{AccountID: alice.ID, Username: "alice", Secret: "I like trains"}}, entries)
}

func TestServiceSubmit(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	alice := seed(t, store, "alice")
	svc := NewService(store)

	assert.ErrorIs(t, svc.Submit(ctx, alice.ID, ""), ErrEmptySecret)
	assert.ErrorIs(t, svc.Submit(ctx, "missing", "x"), account.ErrNotFound)
	require.NoError(t, svc.Submit(ctx, alice.ID, "I like trains"))

	got, err := store.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "I like trains", got.SecretText())
}

func TestServiceListStoreError(t *testing.T) {
	_, err := NewService(brokenStore{storage.NewMemory()}).List(context.Background())
	assert.Error(t, err)
}
