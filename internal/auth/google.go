package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/yourusername/himitsu/internal/account"
)

// DefaultGoogleUserInfoURL は Google の userinfo (v3) エンドポイントです。
const DefaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// IdentityProvider は外部の OAuth2 プロバイダーです。
type IdentityProvider interface {
	AuthCodeURL(state string) string
	// Exchange は認可コードを検証済みプロフィールに交換します。失敗は ErrOAuthFailure です。
	Exchange(ctx context.Context, code string) (Profile, error)
}

// GoogleConfig は GoogleProvider の設定です。
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	UserInfoURL  string
	Scopes       []string

	// Endpoint と HTTPClient はテストで差し替えるためのものです。
	Endpoint   oauth2.Endpoint
	HTTPClient *http.Client
}

// GoogleProvider は golang.org/x/oauth2 を使った Google ログインです。
type GoogleProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// NewGoogleProvider は GoogleProvider を作成します。スコープ未指定なら profile のみを要求します。
func NewGoogleProvider(cfg GoogleConfig) *GoogleProvider {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" || endpoint.TokenURL == "" {
		endpoint = endpoints.Google
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"profile"}
	}
	userInfoURL := cfg.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = DefaultGoogleUserInfoURL
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		httpClient:  cfg.HTTPClient,
	}
}

// AuthCodeURL は認可エンドポイントへのリダイレクト先を返します。
func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

type googleUserInfo struct {
	Sub   string `json:"sub"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Exchange はトークンを取得し、userinfo からプロフィールを読み込みます。
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (Profile, error) {
	if code == "" {
		return Profile{}, newError(ErrOAuthFailure, errors.New("missing authorization code"))
	}
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, newError(ErrOAuthFailure, fmt.Errorf("token exchange: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return Profile{}, newError(ErrOAuthFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return Profile{}, newError(ErrOAuthFailure, fmt.Errorf("userinfo request: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Profile{}, newError(ErrOAuthFailure, fmt.Errorf("userinfo status %d", resp.StatusCode))
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return Profile{}, newError(ErrOAuthFailure, fmt.Errorf("decode userinfo: %w", err))
	}
	if info.Sub == "" {
		return Profile{}, newError(ErrOAuthFailure, errors.New("userinfo has no sub"))
	}

	return Profile{
		Provider:    account.ProviderGoogle,
		SubjectID:   info.Sub,
		DisplayName: info.Name,
		Email:       info.Email,
	}, nil
}
