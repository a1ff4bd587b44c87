package account

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("account not found")
	ErrUsernameTaken    = errors.New("username already registered")
	ErrDuplicateSubject = errors.New("oauth subject already registered")
	ErrCorrupt          = errors.New("stored account is malformed")
)

// Store はアカウントの永続化層です。
// ErrNotFound / ErrUsernameTaken / ErrDuplicateSubject 以外のエラーはストレージ障害として扱われます。
type Store interface {
	// Create は ID を採番して保存し、a.ID に設定します。
	Create(ctx context.Context, a *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	// FindLocalByUsername はローカルアカウントのみを対象に完全一致で検索します。
	FindLocalByUsername(ctx context.Context, username string) (*Account, error)
	FindByOAuthSubject(ctx context.Context, provider, subjectID string) (*Account, error)
	// UpdateSecret はシークレットを上書きします（追記ではありません）。
	UpdateSecret(ctx context.Context, id, secret string) error
	ListWithSecrets(ctx context.Context) ([]*Account, error)
}
