package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/himitsu/internal/account"
)

func TestMemoryCreateAssignsID(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	a := account.NewLocal("alice", "digest")
	require.NoError(t, store.Create(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	found, err := store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, found)
}

func TestMemoryCreateRejectsInvalid(t *testing.T) {
	store := NewMemory()
	err := store.Create(context.Background(), &account.Account{Username: "alice"})
	assert.Error(t, err)
}

func TestMemoryUsernameUniqueAmongLocalAccounts(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Create(ctx, account.NewLocal("alice", "digest")))
	err := store.Create(ctx, account.NewLocal("alice", "other"))
	assert.ErrorIs(t, err, account.ErrUsernameTaken)

	// OAuth の表示名はローカルのユーザー名と重複してもよい
	require.NoError(t, store.Create(ctx, account.NewOAuth("alice", account.ProviderGoogle, "sub-1")))
}

func TestMemoryDuplicateSubject(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Create(ctx, account.NewOAuth("Alice", account.ProviderGoogle, "sub-1")))
	err := store.Create(ctx, account.NewOAuth("Alice Again", account.ProviderGoogle, "sub-1"))
	assert.ErrorIs(t, err, account.ErrDuplicateSubject)
}

func TestMemoryFindLocalByUsernameIgnoresOAuthAccounts(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	require.NoError(t, store.Create(ctx, account.NewOAuth("bob", account.ProviderGoogle, "sub-1")))

	_, err := store.FindLocalByUsername(ctx, "bob")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestMemoryFindByOAuthSubject(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	created := account.NewOAuth("Bob", account.ProviderGoogle, "sub-1")
	require.NoError(t, store.Create(ctx, created))

	found, err := store.FindByOAuthSubject(ctx, account.ProviderGoogle, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = store.FindByOAuthSubject(ctx, account.ProviderGoogle, "sub-2")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func TestMemoryUpdateSecretOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	alice := account.NewLocal("alice", "digest")
	bob := account.NewLocal("bob", "digest")
	require.NoError(t, store.Create(ctx, alice))
	require.NoError(t, store.Create(ctx, bob))

	require.NoError(t, store.UpdateSecret(ctx, alice.ID, "first"))
	require.NoError(t, store.UpdateSecret(ctx, alice.ID, "second"))

	found, err := store.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", found.SecretText())

	other, err := store.FindByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, other.HasSecret())

	assert.ErrorIs(t, store.UpdateSecret(ctx, "missing", "x"), account.ErrNotFound)
}

func TestMemoryListWithSecrets(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	alice := account.NewLocal("alice", "digest")
	bob := account.NewLocal("bob", "digest")
	require.NoError(t, store.Create(ctx, alice))
	require.NoError(t, store.Create(ctx, bob))
	require.NoError(t, store.UpdateSecret(ctx, bob.ID, "I like trains"))

	list, err := store.ListWithSecrets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, bob.ID, list[0].ID)
	assert.Equal(t, "I like trains", list[0].SecretText())
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	a := account.NewLocal("alice", "digest")
	require.NoError(t, store.Create(ctx, a))

	found, err := store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	found.Username = "mallory"

	again, err := store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	a := account.NewLocal("alice", "digest")
	require.NoError(t, store.Create(ctx, a))

	require.NoError(t, store.Delete(ctx, a.ID))
	_, err := store.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, account.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, a.ID), account.ErrNotFound)
}
