// Package account はアカウント（ローカル/OAuth）のドメインモデルと永続化インターフェースを提供します。
package account

import (
	"errors"
	"strings"
	"time"
)

// Kind は資格情報の種別を表します。
type Kind string

const (
	KindLocal Kind = "local"
	KindOAuth Kind = "oauth"
)

// ProviderGoogle は Google OAuth のプロバイダー名です。
const ProviderGoogle = "google"

// Credential はアカウントが保持する資格情報です。
// LocalCredential と OAuthCredential のどちらか一方だけを取ります。
type Credential interface {
	Kind() Kind
	validate() error
}

// LocalCredential はユーザー名とパスワードで登録したアカウントの資格情報です。
type LocalCredential struct {
	PasswordHash string
}

// Kind は KindLocal を返します。
func (LocalCredential) Kind() Kind { return KindLocal }

func (c LocalCredential) validate() error {
	if c.PasswordHash == "" {
		return errors.New("local credential requires a password hash")
	}
	return nil
}

// OAuthCredential は外部IDプロバイダー経由で作成したアカウントの資格情報です。
type OAuthCredential struct {
	Provider  string
	SubjectID string
}

// Kind は KindOAuth を返します。
func (OAuthCredential) Kind() Kind { return KindOAuth }

func (c OAuthCredential) validate() error {
	if c.Provider == "" {
		return errors.New("oauth credential requires a provider")
	}
	if c.SubjectID == "" {
		return errors.New("oauth credential requires a subject id")
	}
	return nil
}

// Account は永続化される唯一のエンティティです。
// ID は作成時に採番され、以降変わりません。
type Account struct {
	ID         string
	Username   string
	Secret     *string
	Credential Credential
	CreatedAt  time.Time
}

// NewLocal はローカル登録用のアカウントを作成します（ID は Store が採番）。
func NewLocal(username, passwordHash string) *Account {
	return &Account{
		Username:   username,
		Credential: LocalCredential{PasswordHash: passwordHash},
	}
}

// NewOAuth は OAuth 初回ログイン用のアカウントを作成します。
func NewOAuth(username, provider, subjectID string) *Account {
	return &Account{
		Username:   username,
		Credential: OAuthCredential{Provider: provider, SubjectID: subjectID},
	}
}

// Local はローカル資格情報を返します。
func (a *Account) Local() (LocalCredential, bool) {
	c, ok := a.Credential.(LocalCredential)
	return c, ok
}

// OAuth は OAuth 資格情報を返します。
func (a *Account) OAuth() (OAuthCredential, bool) {
	c, ok := a.Credential.(OAuthCredential)
	return c, ok
}

// HasSecret はシークレットが投稿済みかどうかを返します。
func (a *Account) HasSecret() bool {
	return a.Secret != nil
}

// SecretText はシークレット本文を返します（未投稿なら空文字）。
func (a *Account) SecretText() string {
	if a.Secret == nil {
		return ""
	}
	return *a.Secret
}

// Validate は保存前の整合性を検証します。
func (a *Account) Validate() error {
	if a == nil {
		return errors.New("account is nil")
	}
	if strings.TrimSpace(a.Username) == "" {
		return errors.New("account requires a username")
	}
	if a.Credential == nil {
		return errors.New("account requires a credential")
	}
	return a.Credential.validate()
}

// Clone はポインタフィールドを含めて複製します。
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.Secret != nil {
		s := *a.Secret
		out.Secret = &s
	}
	return &out
}
