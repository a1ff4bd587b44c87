// Package storage はアカウントストアの実装（MongoDB / インメモリ）を提供します。
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/himitsu/internal/account"
)

// Memory はプロセス内で完結するアカウントストアです。
// テストとローカル開発（STORE_DRIVER=memory）で使用します。
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]*account.Account
	now      func() time.Time
}

// NewMemory は空の Memory を作成します。
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*account.Account),
		now:      time.Now,
	}
}

// Create はアカウントを保存します。
func (m *Memory) Create(ctx context.Context, a *account.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if err := conflict(existing, a); err != nil {
			return err
		}
	}

	stored := a.Clone()
	stored.ID = uuid.NewString()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = m.now().UTC()
	}
	m.accounts[stored.ID] = stored

	a.ID = stored.ID
	a.CreatedAt = stored.CreatedAt
	return nil
}

func conflict(existing, candidate *account.Account) error {
	switch c := candidate.Credential.(type) {
	case account.LocalCredential:
		if _, ok := existing.Local(); ok && existing.Username == candidate.Username {
			return account.ErrUsernameTaken
		}
	case account.OAuthCredential:
		if o, ok := existing.OAuth(); ok && o.Provider == c.Provider && o.SubjectID == c.SubjectID {
			return account.ErrDuplicateSubject
		}
	}
	return nil
}

// FindByID は ID でアカウントを取得します。
func (m *Memory) FindByID(ctx context.Context, id string) (*account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a.Clone(), nil
}

// FindLocalByUsername はローカルアカウントをユーザー名で取得します。
func (m *Memory) FindLocalByUsername(ctx context.Context, username string) (*account.Account, error) {
	return m.findFirst(func(a *account.Account) bool {
		_, ok := a.Local()
		return ok && a.Username == username
	})
}

// FindByOAuthSubject はプロバイダーのサブジェクトIDでアカウントを取得します。
func (m *Memory) FindByOAuthSubject(ctx context.Context, provider, subjectID string) (*account.Account, error) {
	return m.findFirst(func(a *account.Account) bool {
		o, ok := a.OAuth()
		return ok && o.Provider == provider && o.SubjectID == subjectID
	})
}

// UpdateSecret はシークレットを上書きします。
func (m *Memory) UpdateSecret(ctx context.Context, id, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	a.Secret = &secret
	return nil
}

// ListWithSecrets はシークレット投稿済みのアカウントを作成順に返します。
func (m *Memory) ListWithSecrets(ctx context.Context) ([]*account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*account.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		if a.HasSecret() {
			out = append(out, a.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Delete はアカウントを削除します。
// HTTP からは公開されていません（ストア側での削除を再現するために使います）。
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return account.ErrNotFound
	}
	delete(m.accounts, id)
	return nil
}

func (m *Memory) findFirst(match func(*account.Account) bool) (*account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.accounts {
		if match(a) {
			return a.Clone(), nil
		}
	}
	return nil, account.ErrNotFound
}
