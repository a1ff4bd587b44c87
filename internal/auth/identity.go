package auth

import (
	"context"
	"errors"

	"github.com/yourusername/himitsu/internal/account"
)

// IdentityManager はアカウントとセッションに保存するトークンを相互変換します。
type IdentityManager struct {
	store account.Store
}

// NewIdentityManager は IdentityManager を作成します。
func NewIdentityManager(store account.Store) *IdentityManager {
	return &IdentityManager{store: store}
}

// Serialize はアカウントIDをトークンとして返します。
// パスワードハッシュやシークレットはトークンに含めません。
func (m *IdentityManager) Serialize(a *account.Account) (string, error) {
	if a == nil || a.ID == "" {
		return "", errors.New("account has no id")
	}
	return a.ID, nil
}

// Deserialize はトークンからアカウントを復元します。
func (m *IdentityManager) Deserialize(ctx context.Context, token string) (*account.Account, error) {
	if token == "" {
		return nil, ErrIdentityNotFound
	}
	a, err := m.store.FindByID(ctx, token)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return nil, ErrIdentityNotFound
		}
		return nil, newError(ErrStoreUnavailable, err)
	}
	return a, nil
}
