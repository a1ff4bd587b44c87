// Package secrets はシークレットの一覧表示と投稿を提供します。
package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/himitsu/internal/account"
)

// ErrEmptySecret は空のシークレットが投稿されたことを表します。
var ErrEmptySecret = errors.New("secret is empty")

// Entry は一覧に表示するシークレット1件です。
type Entry struct {
	AccountID string
	Username  string
	Secret    string
}

// Service はシークレットの読み書きを行います。
type Service struct {
	store account.Store
}

// NewService は Service を作成します。
func NewService(store account.Store) *Service {
	return &Service{store: store}
}

// List はシークレット投稿済みの全アカウントを返します。
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	accounts, err := s.store.ListWithSecrets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}
	entries := make([]Entry, 0, len(accounts))
	for _, a := range accounts {
		entries = append(entries, Entry{
			AccountID: a.ID,
			Username:  a.Username,
			Secret:    a.SecretText(),
		})
	}
	return entries, nil
}

// Submit は accountID のシークレットを上書きします。
// 対象アカウントは呼び出し側がセッションから決めます。
func (s *Service) Submit(ctx context.Context, accountID, secret string) error {
	if secret == "" {
		return ErrEmptySecret
	}
	if err := s.store.UpdateSecret(ctx, accountID, secret); err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return err
		}
		return fmt.Errorf("submit secret: %w", err)
	}
	return nil
}
