package auth

import (
	"context"
	"errors"

	"github.com/yourusername/himitsu/internal/account"
)

// Outcome は認証ストラテジーの判定結果です。
type Outcome int

const (
	// OutcomeSkip はこのストラテジーが対象外の資格情報だったことを表します。
	OutcomeSkip Outcome = iota
	OutcomeSuccess
	OutcomeInvalid
	// OutcomeFailed はストアや外部プロバイダーの障害で判定できなかったことを表します。
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeFailed:
		return "failed"
	default:
		return "skip"
	}
}

// Result はストラテジー1件分の結果です。
type Result struct {
	Outcome Outcome
	Account *account.Account
	Err     error
}

// Credentials は認証に渡す入力です。PasswordCredentials か ProfileCredentials を取ります。
type Credentials interface {
	credentials()
}

// PasswordCredentials はログインフォームの入力です。
type PasswordCredentials struct {
	Username string
	Password string
}

func (PasswordCredentials) credentials() {}

// ProfileCredentials は外部プロバイダーで検証済みのプロフィールです。
type ProfileCredentials struct {
	Profile Profile
}

func (ProfileCredentials) credentials() {}

// Strategy は認証方式1つ分です。
type Strategy interface {
	Name() string
	Authenticate(ctx context.Context, creds Credentials) Result
}

// Authenticator は順序付きのストラテジー列を評価するディスパッチャーです。
type Authenticator struct {
	strategies []Strategy
}

// NewAuthenticator は評価順にストラテジーを受け取ります。
func NewAuthenticator(strategies ...Strategy) *Authenticator {
	return &Authenticator{strategies: strategies}
}

// Authenticate は最初に成功したストラテジーのアカウントを返します。
// 障害が起きた時点で打ち切り、どれも成功しなければ ErrInvalidCredentials を返します。
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*account.Account, error) {
	var lastInvalid error
	for _, s := range a.strategies {
		res := s.Authenticate(ctx, creds)
		switch res.Outcome {
		case OutcomeSuccess:
			return res.Account, nil
		case OutcomeFailed:
			return nil, res.Err
		case OutcomeInvalid:
			lastInvalid = res.Err
		}
	}
	if lastInvalid != nil {
		return nil, lastInvalid
	}
	return nil, ErrInvalidCredentials
}

// resultOf は (account, error) を Result に変換します。
func resultOf(a *account.Account, err error) Result {
	switch {
	case err == nil:
		return Result{Outcome: OutcomeSuccess, Account: a}
	case errors.Is(err, ErrInvalidCredentials):
		return Result{Outcome: OutcomeInvalid, Err: err}
	default:
		return Result{Outcome: OutcomeFailed, Err: err}
	}
}
