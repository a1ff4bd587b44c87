package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/yourusername/himitsu/internal/account"
	"github.com/yourusername/himitsu/internal/logutil"
)

// Profile は外部プロバイダーで検証済みのユーザー情報です。
type Profile struct {
	Provider    string
	SubjectID   string
	DisplayName string
	Email       string
}

// username はアカウント作成時のユーザー名を決めます。
// 表示名が無ければメールアドレスのローカル部を使います。
func (p Profile) username() string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(p.Email), "@"); ok && local != "" {
		return local
	}
	return ""
}

// OAuthReconciler は外部IDをローカルアカウントに対応付けます（なければ作成）。
type OAuthReconciler struct {
	store account.Store
}

// NewOAuthReconciler は OAuthReconciler を作成します。
func NewOAuthReconciler(store account.Store) *OAuthReconciler {
	return &OAuthReconciler{store: store}
}

// Name はストラテジー名を返します。
func (r *OAuthReconciler) Name() string { return "oauth" }

// Authenticate は ProfileCredentials のみを扱います。
func (r *OAuthReconciler) Authenticate(ctx context.Context, creds Credentials) Result {
	pc, ok := creds.(ProfileCredentials)
	if !ok {
		return Result{Outcome: OutcomeSkip}
	}
	return resultOf(r.Reconcile(ctx, pc.Profile))
}

// Reconcile はサブジェクトIDでアカウントを探し、無ければ作成して返します。
// 既存アカウントのフィールドは新しいプロフィールで更新しません。
func (r *OAuthReconciler) Reconcile(ctx context.Context, p Profile) (*account.Account, error) {
	provider := p.Provider
	if provider == "" {
		provider = account.ProviderGoogle
	}
	subject := strings.TrimSpace(p.SubjectID)
	if subject == "" {
		return nil, newError(ErrOAuthFailure, errors.New("profile has no subject id"))
	}

	found, err := r.store.FindByOAuthSubject(ctx, provider, subject)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, account.ErrNotFound) {
		return nil, newError(ErrStoreUnavailable, err)
	}

	username := p.username()
	if username == "" {
		return nil, newError(ErrOAuthFailure, errors.New("profile has no display name"))
	}

	created := account.NewOAuth(username, provider, subject)
	if err := r.store.Create(ctx, created); err != nil {
		if errors.Is(err, account.ErrDuplicateSubject) {
			// 同じサブジェクトの初回ログインが並行した場合は先に作られた方を使う
			existing, findErr := r.store.FindByOAuthSubject(ctx, provider, subject)
			if findErr != nil {
				return nil, newError(ErrStoreUnavailable, findErr)
			}
			return existing, nil
		}
		return nil, newError(ErrStoreUnavailable, err)
	}

	log := logutil.GetOrDefault(ctx)
	log.Info().
		Str("account", created.ID).
		Str("provider", provider).
		Msg("created account from oauth profile")
	return created, nil
}
