package auth

import "fmt"

// Error は認証処理のエラー種別を表します。
// errors.Is は Code が一致するかどうかで判定します。
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is はエラーコードで比較します。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalidCredentials = &Error{Code: "INVALID_CREDENTIALS", Message: "ユーザー名またはパスワードが正しくありません"}
	ErrStoreUnavailable   = &Error{Code: "STORE_UNAVAILABLE", Message: "アカウント情報を取得できませんでした"}
	ErrIdentityNotFound   = &Error{Code: "IDENTITY_NOT_FOUND", Message: "セッションのアカウントが見つかりません"}
	ErrOAuthFailure       = &Error{Code: "OAUTH_FAILURE", Message: "Google ログインに失敗しました"}
	ErrUsernameTaken      = &Error{Code: "USERNAME_TAKEN", Message: "このユーザー名は既に登録されています"}
	ErrInvalidInput       = &Error{Code: "INVALID_INPUT", Message: "username と password を入力してください"}
	ErrHashFailure        = &Error{Code: "HASH_FAILURE", Message: "パスワードを登録できませんでした"}
)

func newError(kind *Error, err error) *Error {
	return &Error{Code: kind.Code, Message: kind.Message, Err: err}
}
