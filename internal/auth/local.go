package auth

import (
	"context"
	"errors"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/logutil"
)

// ユーザーが存在しない場合も bcrypt 比較を1回行い、応答時間を揃えるためのダイジェストです。
const fallbackDummyDigest = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// LocalVerifier はユーザー名とパスワードを検証します。
type LocalVerifier struct {
	store       account.Store
	hasher      Hasher
	dummyDigest string
}

// NewLocalVerifier は LocalVerifier を作成します。
func NewLocalVerifier(store account.Store, hasher Hasher) *LocalVerifier {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		dummy = fallbackDummyDigest
	}
	return &LocalVerifier{
		store:       store,
		hasher:      hasher,
		dummyDigest: dummy,
	}
}

// Name はストラテジー名を返します。
func (v *LocalVerifier) Name() string { return "local" }

// Authenticate は PasswordCredentials のみを扱います。
func (v *LocalVerifier) Authenticate(ctx context.Context, creds Credentials) Result {
	pc, ok := creds.(PasswordCredentials)
	if !ok {
		return Result{Outcome: OutcomeSkip}
	}
	return resultOf(v.Verify(ctx, pc.Username, pc.Password))
}

// Verify はローカルアカウントを検索してパスワードを照合します。
// 「ユーザーなし」と「パスワード不一致」は外部には同じ ErrInvalidCredentials として返します。
func (v *LocalVerifier) Verify(ctx context.Context, username, password string) (*account.Account, error) {
	log := logutil.GetOrDefault(ctx)

	a, err := v.store.FindLocalByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			_ = v.hasher.Verify(password, v.dummyDigest)
			log.Debug().Str("reason", "unknown username").Msg("local login rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, newError(ErrStoreUnavailable, err)
	}

	cred, ok := a.Local()
	if !ok || !v.hasher.Verify(password, cred.PasswordHash) {
		log.Debug().Str("reason", "password mismatch").Str("account", a.ID).Msg("local login rejected")
		return nil, ErrInvalidCredentials
	}
	return a, nil
}
